// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestLogHandlerEnabled(t *testing.T) {
	handler := NewLogHandler(slog.LevelWarn)
	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info enabled at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("error disabled at warn level")
	}
}

func TestLogHandlerDropsWithoutProgram(t *testing.T) {
	handler := NewLogHandler(slog.LevelInfo)
	record := slog.NewRecord(time.Now(), slog.LevelInfo, "socket connected", 0)
	if err := handler.Handle(context.Background(), record); err != nil {
		t.Errorf("Handle() = %v", err)
	}
}

func TestLogHandlerSummary(t *testing.T) {
	root := NewLogHandler(slog.LevelInfo)
	derived := root.WithAttrs([]slog.Attr{slog.String("url", "ws://x")}).(*LogHandler)
	grouped := derived.WithGroup("request").(*LogHandler)

	record := slog.NewRecord(time.Now(), slog.LevelWarn, "request timed out", 0)
	record.AddAttrs(slog.Int("task", 7))

	if got, want := grouped.summarize(record), "request timed out (url=ws://x, request.task=7)"; got != want {
		t.Errorf("summarize = %q, want %q", got, want)
	}

	bare := slog.NewRecord(time.Now(), slog.LevelInfo, "socket connected", 0)
	if got := root.summarize(bare); got != "socket connected" {
		t.Errorf("summarize = %q, want bare message", got)
	}

	if grouped.program != root.program {
		t.Error("derived handler does not share the program pointer")
	}
	if len(root.attrs) != 0 {
		t.Error("WithAttrs modified the parent handler")
	}
}
