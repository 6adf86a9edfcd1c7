// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/mould/lib/config"
	"github.com/bureau-foundation/mould/lib/mould"
)

func TestNewLoggerFormats(t *testing.T) {
	for _, format := range []string{"auto", "json"} {
		t.Run(format, func(t *testing.T) {
			var buffer bytes.Buffer
			logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: format}, &buffer)
			if err != nil {
				t.Fatalf("NewLogger: %v", err)
			}
			logger.Info("socket connected", "url", "ws://x")

			var record map[string]any
			if err := json.Unmarshal(buffer.Bytes(), &record); err != nil {
				t.Fatalf("output is not JSON: %q", buffer.String())
			}
			if record["msg"] != "socket connected" || record["url"] != "ws://x" {
				t.Errorf("record = %v", record)
			}
		})
	}

	var buffer bytes.Buffer
	logger, err := NewLogger(config.LoggingConfig{Level: "warn", Format: "text"}, &buffer)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if output := buffer.String(); strings.Contains(output, "hidden") || !strings.Contains(output, "msg=shown") {
		t.Errorf("text output = %q", output)
	}
}

func TestNewLoggerRejectsBadSettings(t *testing.T) {
	if _, err := NewLogger(config.LoggingConfig{Level: "loud", Format: "json"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := NewLogger(config.LoggingConfig{Level: "info", Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		stderr string
	}{
		{name: "success", err: nil, code: 0},
		{name: "exit error", err: &ExitError{Code: 3}, code: 3},
		{name: "wrapped exit error", err: fmt.Errorf("call: %w", &ExitError{Code: 2}), code: 2},
		{name: "plain error", err: errors.New("dialing websocket: refused"), code: 1, stderr: "mould-call: dialing websocket: refused\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if code := ExitCode(test.err, &stderr, "mould-call"); code != test.code {
				t.Errorf("ExitCode = %d, want %d", code, test.code)
			}
			if stderr.String() != test.stderr {
				t.Errorf("stderr = %q, want %q", stderr.String(), test.stderr)
			}
		})
	}
}

func parseConnectionFlags(t *testing.T, args ...string) (*ConnectionFlags, *pflag.FlagSet) {
	t.Helper()
	flags := &ConnectionFlags{}
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.AddFlags(flagSet)
	if err := flagSet.Parse(args); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return flags, flagSet
}

func TestConnectionFlagsDefaults(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	flags, flagSet := parseConnectionFlags(t)
	cfg, err := flags.Load(flagSet)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.URL != config.Default().Server.URL {
		t.Errorf("URL = %q", cfg.Server.URL)
	}
}

func TestConnectionFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mould.yaml")
	content := "server:\n  url: ws://config.example/rpc\n  format: cbor\n  request_timeout: 3s\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvVar, path)

	flags, flagSet := parseConnectionFlags(t, "--url", "wss://flag.example/rpc", "--timeout", "1s")
	cfg, err := flags.Load(flagSet)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.URL != "wss://flag.example/rpc" {
		t.Errorf("URL = %q, want flag value", cfg.Server.URL)
	}
	if cfg.Server.Format != "cbor" {
		t.Errorf("Format = %q, want file value", cfg.Server.Format)
	}
	if cfg.Server.RequestTimeout != time.Second {
		t.Errorf("RequestTimeout = %v, want flag value", cfg.Server.RequestTimeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want file value", cfg.Logging.Level)
	}
}

func TestConnectionFlagsValidate(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	flags, flagSet := parseConnectionFlags(t, "--url", "http://example/rpc")
	if _, err := flags.Load(flagSet); err == nil || !strings.Contains(err.Error(), "ws or wss") {
		t.Errorf("Load = %v, want scheme error", err)
	}
}

func TestConnectionFlagsMissingFile(t *testing.T) {
	flags, flagSet := parseConnectionFlags(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := flags.Load(flagSet); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load = %v, want not-exist error", err)
	}
}

func TestReadPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.jsonc")
	if err := os.WriteFile(path, []byte("{\n  // user to fetch\n  \"id\": 7,\n  \"ratio\": 0.5,\n}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		inline string
		path   string
		stdin  string
		want   any
	}{
		{name: "inline", inline: `{"id": 1}`, want: map[string]any{"id": int64(1)}},
		{name: "inline wins", inline: `[1, 2]`, path: path, want: []any{int64(1), int64(2)}},
		{name: "jsonc file", path: path, want: map[string]any{"id": int64(7), "ratio": 0.5}},
		{name: "stdin", stdin: `"hello"`, want: "hello"},
		{name: "empty", want: nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ReadPayload(test.inline, test.path, strings.NewReader(test.stdin))
			if err != nil {
				t.Fatalf("ReadPayload: %v", err)
			}
			if !reflect.DeepEqual(got, test.want) {
				t.Errorf("payload = %#v, want %#v", got, test.want)
			}
		})
	}
}

func TestReadPayloadErrors(t *testing.T) {
	if _, err := ReadPayload("{", "", nil); err == nil || !strings.Contains(err.Error(), "--payload") {
		t.Errorf("malformed inline: %v", err)
	}
	if _, err := ReadPayload("1 2", "", nil); err == nil || !strings.Contains(err.Error(), "trailing data") {
		t.Errorf("trailing data: %v", err)
	}
	if _, err := ReadPayload("", filepath.Join(t.TempDir(), "absent"), nil); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: %v", err)
	}
}

func TestNewClient(t *testing.T) {
	cfg := config.Default()
	registry := prometheus.NewRegistry()

	client, err := NewClient(cfg, nil, registry)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Error("no metrics registered")
	}

	if _, err := NewClient(cfg, nil, registry); err == nil {
		t.Error("expected duplicate registration error")
	}

	cfg.Server.Format = "xml"
	if _, err := NewClient(cfg, nil, nil); err == nil {
		t.Error("expected format error")
	}
}

func TestNewClientRequiresConnect(t *testing.T) {
	client, err := NewClient(config.Default(), nil, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	_, err = mould.Request(client, "users", "get", struct{}{}, func(mould.Result[any]) {})
	if !errors.Is(err, mould.ErrNotConnected) {
		t.Errorf("Request = %v, want ErrNotConnected", err)
	}
}
