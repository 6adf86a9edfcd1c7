// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestRenderMarkdownBlocks(t *testing.T) {
	input := "# Title\n\nSome *soft*\nwrapped **text**.\n\n- first\n- second\n\n1. one\n2. two\n\n```json\n{\"x\":1}\n```\n"
	rendered := renderMarkdown(input, DefaultTheme, 60)
	plain := ansi.Strip(rendered)

	for _, want := range []string{
		"Title",
		"Some soft wrapped text.",
		"• first",
		"• second",
		"1. one",
		"2. two",
		`  {"x":1}`,
	} {
		if !strings.Contains(plain, want) {
			t.Errorf("rendered output missing %q:\n%s", want, plain)
		}
	}
	if rendered == plain {
		t.Error("rendered output carries no styling")
	}
}

func TestRenderMarkdownCodeSpan(t *testing.T) {
	plain := ansi.Strip(renderMarkdown("Call `users.get` now.", DefaultTheme, 40))
	if plain != "Call users.get now." {
		t.Errorf("rendered = %q", plain)
	}
}

func TestRenderMarkdownWraps(t *testing.T) {
	paragraph := strings.Repeat("request response ", 20)
	rendered := renderMarkdown(paragraph, DefaultTheme, 30)
	lines := strings.Split(rendered, "\n")
	if len(lines) < 5 {
		t.Fatalf("expected wrapping, got %d lines", len(lines))
	}
	for index, line := range lines {
		if width := ansi.StringWidth(line); width > 30 {
			t.Errorf("line %d is %d columns wide, limit 30: %q", index, width, ansi.Strip(line))
		}
	}
}

func TestRenderMarkdownUnknownLanguage(t *testing.T) {
	plain := ansi.Strip(renderMarkdown("```nosuchlanguage\nraw text\n```", DefaultTheme, 40))
	if !strings.Contains(plain, "raw text") {
		t.Errorf("rendered = %q", plain)
	}
}

func TestRenderMarkdownEmpty(t *testing.T) {
	if rendered := renderMarkdown("", DefaultTheme, 40); rendered != "" {
		t.Errorf("rendered = %q, want empty", rendered)
	}
}
