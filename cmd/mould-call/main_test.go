// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/coder/websocket"

	"github.com/bureau-foundation/mould/lib/cli"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		args    []string
		service string
		action  string
		wantErr string
	}{
		{args: []string{"users.get"}, service: "users", action: "get"},
		{args: []string{"users", "get"}, service: "users", action: "get"},
		{args: []string{"users.get.more"}, service: "users", action: "get.more"},
		{args: []string{"users"}, wantErr: "service.action"},
		{args: []string{".get"}, wantErr: "service.action"},
		{args: nil, wantErr: "missing target"},
		{args: []string{"a", "b", "c"}, wantErr: "unexpected argument: c"},
	}
	for _, test := range tests {
		service, action, err := parseTarget(test.args)
		if test.wantErr != "" {
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("parseTarget(%q) error = %v, want %q", test.args, err, test.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseTarget(%q): %v", test.args, err)
			continue
		}
		if service != test.service || action != test.action {
			t.Errorf("parseTarget(%q) = %q, %q", test.args, service, action)
		}
	}
}

func TestFormatResult(t *testing.T) {
	value := map[string]any{"name": "ada", "id": 7}

	plain, err := formatResult(value, false)
	if err != nil {
		t.Fatalf("formatResult: %v", err)
	}
	want := "{\n  \"id\": 7,\n  \"name\": \"ada\"\n}\n"
	if plain != want {
		t.Errorf("plain = %q, want %q", plain, want)
	}

	highlighted, err := formatResult(value, true)
	if err != nil {
		t.Fatalf("formatResult: %v", err)
	}
	if highlighted == plain {
		t.Error("highlighted output carries no escape sequences")
	}
	if ansi.Strip(highlighted) != plain {
		t.Errorf("highlighted text differs once stripped: %q", ansi.Strip(highlighted))
	}

	if _, err := formatResult(make(chan int), false); err == nil {
		t.Error("expected error for unencodable value")
	}
}

func TestWantHighlight(t *testing.T) {
	var buffer bytes.Buffer
	if on, _ := wantHighlight("auto", &buffer); on {
		t.Error("auto highlights a buffer")
	}
	if on, _ := wantHighlight("always", &buffer); !on {
		t.Error("always does not highlight")
	}
	if _, err := wantHighlight("sometimes", &buffer); err == nil {
		t.Error("expected error for unknown mode")
	}
}

// startServer runs a websocket server that answers every request with
// handle's reply text.
func startServer(t *testing.T, handle func(request []byte) string) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		conn, err := websocket.Accept(writer, request, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		for {
			_, data, err := conn.Read(request.Context())
			if err != nil {
				return
			}
			if err := conn.Write(request.Context(), websocket.MessageText, []byte(handle(data))); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestRunRepeat(t *testing.T) {
	t.Setenv("MOULD_CONFIG", "")
	var requests atomic.Int32
	url := startServer(t, func(request []byte) string {
		requests.Add(1)
		return `{"event":"item","data":{"echo":` + string(request) + `}}`
	})

	var stdout, stderr bytes.Buffer
	err := run([]string{"--url", url, "--repeat", "3", "--color", "never", "--payload", `{"id": 7}`, "users.get"},
		strings.NewReader(""), &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v (stderr %q)", err, stderr.String())
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
	if count := strings.Count(stdout.String(), `"service": "users"`); count != 3 {
		t.Errorf("stdout has %d results, want 3:\n%s", count, stdout.String())
	}
	if !strings.Contains(stdout.String(), `"id": 7`) {
		t.Errorf("payload missing from echoed request:\n%s", stdout.String())
	}
}

func TestRunRemoteFailure(t *testing.T) {
	t.Setenv("MOULD_CONFIG", "")
	url := startServer(t, func([]byte) string { return `{"event":"fail","data":"no such user"}` })

	var stdout, stderr bytes.Buffer
	err := run([]string{"--url", url, "users", "get"}, strings.NewReader(""), &stdout, &stderr)

	var exit *cli.ExitError
	if !errors.As(err, &exit) || exit.Code != 1 {
		t.Fatalf("run = %v, want exit code 1", err)
	}
	if !strings.Contains(stderr.String(), "users.get failed (remote): no such user") {
		t.Errorf("stderr = %q", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}
}

func TestRunVersion(t *testing.T) {
	var stdout bytes.Buffer
	if err := run([]string{"--version"}, nil, &stdout, &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "mould-call ") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunDialFailure(t *testing.T) {
	t.Setenv("MOULD_CONFIG", "")
	err := run([]string{"--url", "ws://127.0.0.1:1/rpc", "users.get"}, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "dialing websocket") {
		t.Errorf("run = %v, want dial error", err)
	}
}
