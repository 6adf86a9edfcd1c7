// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/mould/lib/config"
)

// NewLogger creates the structured logger a command writes to w
// (normally os.Stderr). Format "auto" uses slog.TextHandler when w is a
// terminal and slog.JSONHandler otherwise, so piped output stays
// machine-parseable.
func NewLogger(logging config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	level, err := logging.SlogLevel()
	if err != nil {
		return nil, err
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch logging.Format {
	case "text":
		handler = slog.NewTextHandler(w, options)
	case "json":
		handler = slog.NewJSONHandler(w, options)
	case "auto", "":
		if IsTerminal(w) {
			handler = slog.NewTextHandler(w, options)
		} else {
			handler = slog.NewJSONHandler(w, options)
		}
	default:
		return nil, fmt.Errorf("unknown log format %q", logging.Format)
	}
	return slog.New(handler), nil
}

// IsTerminal reports whether w is an *os.File attached to a terminal.
func IsTerminal(w any) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
