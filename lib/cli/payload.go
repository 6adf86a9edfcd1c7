// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/jsonc"
)

// ReadPayload returns the request payload decoded from JSON. inline
// wins over path; path is read as JSONC, so comments and trailing
// commas are allowed. With neither, stdin is read when it is not a
// terminal. No input at all yields a nil payload.
//
// Integral numbers decode as int64 and the rest as float64, so a
// payload re-encodes the same way in either wire format.
func ReadPayload(inline, path string, stdin io.Reader) (any, error) {
	var (
		data   []byte
		source string
	)
	switch {
	case inline != "":
		data, source = []byte(inline), "--payload"
	case path != "":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading payload: %w", err)
		}
		data, source = raw, path
	case stdin != nil && !IsTerminal(stdin):
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading payload from stdin: %w", err)
		}
		data, source = raw, "stdin"
	}

	data = bytes.TrimSpace(jsonc.ToJSON(data))
	if len(data) == 0 {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("payload from %s: %w", source, err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("payload from %s: trailing data after JSON value", source)
	}
	return normalizeNumbers(value), nil
}

func normalizeNumbers(value any) any {
	switch typed := value.(type) {
	case json.Number:
		if integer, err := typed.Int64(); err == nil {
			return integer
		}
		float, _ := typed.Float64()
		return float
	case map[string]any:
		for key, element := range typed {
			typed[key] = normalizeNumbers(element)
		}
		return typed
	case []any:
		for index, element := range typed {
			typed[index] = normalizeNumbers(element)
		}
		return typed
	default:
		return value
	}
}
