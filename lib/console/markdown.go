// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// minimumPageWidth keeps wrapping sane in very narrow terminals.
const minimumPageWidth = 20

var (
	markdownParserInstance goldmark.Markdown
	markdownParserOnce     sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParserInstance = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownParserInstance
}

// renderMarkdown renders a console page written in markdown as styled
// terminal text wrapped to width. It handles the subset the pages use:
// headings, paragraphs, emphasis, code spans, fenced code blocks (with
// syntax highlighting), lists and thematic breaks.
func renderMarkdown(input string, theme Theme, width int) string {
	if input == "" {
		return ""
	}
	if width < minimumPageWidth {
		width = minimumPageWidth
	}
	source := []byte(input)
	document := getMarkdownParser().Parser().Parse(text.NewReader(source))

	renderer := &pageRenderer{
		source:      source,
		theme:       theme,
		width:       width,
		lipRenderer: newRenderer(),
	}
	ast.Walk(document, renderer.walk)
	return strings.TrimRight(renderer.output.String(), "\n")
}

// newRenderer returns the lipgloss renderer for everything the console
// draws. Output always lands in the bubbletea view, so the color
// profile is fixed at ANSI256 rather than detected from stdout.
func newRenderer() *lipgloss.Renderer {
	renderer := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(termenv.ANSI256))
	renderer.SetColorProfile(termenv.ANSI256)
	return renderer
}

type pageRenderer struct {
	source      []byte
	theme       Theme
	width       int
	lipRenderer *lipgloss.Renderer

	output strings.Builder
	inline strings.Builder

	boldCount   int
	italicCount int

	lists []listState

	// pendingBullet replaces the indentation of the next emitted line.
	pendingBullet string
}

type listState struct {
	ordered bool
	next    int
}

func (renderer *pageRenderer) newStyle() lipgloss.Style {
	return renderer.lipRenderer.NewStyle()
}

// indent is the continuation indentation inside nested lists.
func (renderer *pageRenderer) indent() string {
	return strings.Repeat("  ", len(renderer.lists))
}

func (renderer *pageRenderer) styledText(content string) string {
	style := renderer.newStyle().Foreground(renderer.theme.NormalText)
	if renderer.boldCount > 0 {
		style = style.Bold(true)
	}
	if renderer.italicCount > 0 {
		style = style.Italic(true)
	}
	return style.Render(content)
}

// flushBlock wraps the accumulated inline content and writes it with
// the current bullet or indentation.
func (renderer *pageRenderer) flushBlock() {
	content := renderer.inline.String()
	renderer.inline.Reset()
	if content == "" {
		return
	}

	indent := renderer.indent()
	first := indent
	if renderer.pendingBullet != "" {
		first = renderer.pendingBullet
		renderer.pendingBullet = ""
	}
	width := renderer.width - ansi.StringWidth(indent)
	if width < minimumPageWidth/2 {
		width = minimumPageWidth / 2
	}

	lines := strings.Split(ansi.Wrap(content, width, " ,.;-+|"), "\n")
	for index, line := range lines {
		if index == 0 {
			renderer.output.WriteString(first)
		} else {
			renderer.output.WriteString(indent)
		}
		renderer.output.WriteString(line)
		renderer.output.WriteString("\n")
	}
	if len(renderer.lists) == 0 {
		renderer.output.WriteString("\n")
	}
}

// highlightCode syntax-highlights code with Chroma, falling back to
// faint plain text for an unknown or empty language.
func (renderer *pageRenderer) highlightCode(code, language string) string {
	plain := renderer.newStyle().Foreground(renderer.theme.FaintText)
	if language == "" {
		return plain.Render(code)
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err != nil {
		return plain.Render(code)
	}
	return buffer.String()
}

func (renderer *pageRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		if entering {
			renderer.inline.Reset()
		} else {
			renderer.flushBlock()
		}

	case *ast.Heading:
		if entering {
			renderer.inline.Reset()
			return ast.WalkContinue, nil
		}
		style := renderer.newStyle().Bold(true).Foreground(renderer.theme.HeaderForeground)
		if node.Level == 1 {
			style = style.Underline(true)
		}
		heading := ansi.Strip(renderer.inline.String())
		renderer.inline.Reset()
		renderer.output.WriteString(style.Render(heading))
		renderer.output.WriteString("\n\n")

	case *ast.FencedCodeBlock:
		if entering {
			renderer.renderCodeBlock(node)
		}
		return ast.WalkSkipChildren, nil

	case *ast.List:
		if entering {
			renderer.lists = append(renderer.lists, listState{ordered: node.IsOrdered(), next: node.Start})
		} else {
			renderer.lists = renderer.lists[:len(renderer.lists)-1]
			if len(renderer.lists) == 0 {
				renderer.output.WriteString("\n")
			}
		}

	case *ast.ListItem:
		if entering {
			list := &renderer.lists[len(renderer.lists)-1]
			bullet := "• "
			if list.ordered {
				bullet = fmt.Sprintf("%d. ", list.next)
				list.next++
			}
			renderer.pendingBullet = strings.Repeat("  ", len(renderer.lists)-1) + bullet
		}

	case *ast.ThematicBreak:
		if entering {
			rule := renderer.newStyle().Foreground(renderer.theme.BorderColor).
				Render(strings.Repeat("─", renderer.width))
			renderer.output.WriteString(rule + "\n\n")
		}

	case *ast.Text:
		if entering {
			renderer.inline.WriteString(renderer.styledText(string(node.Segment.Value(renderer.source))))
			if node.HardLineBreak() {
				renderer.inline.WriteString("\n")
			} else if node.SoftLineBreak() {
				renderer.inline.WriteString(" ")
			}
		}

	case *ast.String:
		if entering {
			renderer.inline.WriteString(renderer.styledText(string(node.Value)))
		}

	case *ast.Emphasis:
		delta := 1
		if !entering {
			delta = -1
		}
		if node.Level >= 2 {
			renderer.boldCount += delta
		} else {
			renderer.italicCount += delta
		}

	case *ast.CodeSpan:
		if entering {
			var content strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					content.Write(textNode.Segment.Value(renderer.source))
				}
			}
			renderer.inline.WriteString(renderer.newStyle().Foreground(renderer.theme.CodeText).Render(content.String()))
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

func (renderer *pageRenderer) renderCodeBlock(node *ast.FencedCodeBlock) {
	var code strings.Builder
	lines := node.Lines()
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		code.Write(segment.Value(renderer.source))
	}
	language := string(node.Language(renderer.source))
	highlighted := renderer.highlightCode(strings.TrimRight(code.String(), "\n"), language)

	indent := renderer.indent() + "  "
	for _, line := range strings.Split(strings.TrimRight(highlighted, "\n"), "\n") {
		renderer.output.WriteString(indent)
		renderer.output.WriteString(ansi.Truncate(line, renderer.width-len(indent), "…"))
		renderer.output.WriteString("\n")
	}
	renderer.output.WriteString("\n")
}
