// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render draws formatted nodes as terminal text.
//
// Paragraphs, headings and list items are word-wrapped with go-runewidth so
// wide characters keep their columns. Code blocks are highlighted with chroma
// in the configured style and are never wrapped.
package render

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/rigrun-reveal/internal/format"
	"github.com/jeranaias/rigrun-reveal/internal/ui/styles"
)

// DefaultWidth is used when no width is known.
const DefaultWidth = 80

// minWidth keeps lists and code frames drawable on tiny terminals.
const minWidth = 20

const (
	bulletMarker = "• "
	ruleChar     = "─"
)

// Options configures a Renderer.
type Options struct {
	Width          int
	HighlightStyle string
	LineNumbers    bool
}

// Renderer turns nodes into styled terminal text. It is not safe for
// concurrent use; SetWidth is expected from the UI loop only.
type Renderer struct {
	theme       *styles.Theme
	width       int
	style       string
	lineNumbers bool
}

// New creates a renderer drawing with theme.
func New(theme *styles.Theme, opts Options) *Renderer {
	if theme == nil {
		theme = styles.Plain()
	}
	if opts.HighlightStyle == "" {
		opts.HighlightStyle = "monokai"
	}
	r := &Renderer{
		theme:       theme,
		style:       opts.HighlightStyle,
		lineNumbers: opts.LineNumbers,
	}
	r.SetWidth(opts.Width)
	return r
}

// SetWidth changes the wrap width. Non-positive widths select DefaultWidth.
func (r *Renderer) SetWidth(width int) {
	switch {
	case width <= 0:
		width = DefaultWidth
	case width < minWidth:
		width = minWidth
	}
	r.width = width
}

// Width returns the wrap width.
func (r *Renderer) Width() int { return r.width }

// Theme returns the theme the renderer draws with.
func (r *Renderer) Theme() *styles.Theme { return r.theme }

// Render draws nodes separated by blank lines.
func (r *Renderer) Render(nodes []format.Node) string {
	blocks := make([]string, 0, len(nodes))
	for _, n := range nodes {
		blocks = append(blocks, r.Node(n))
	}
	return strings.Join(blocks, "\n\n")
}

// Node draws a single node.
func (r *Renderer) Node(n format.Node) string {
	switch n.Kind {
	case format.KindParagraph:
		return r.text(n.Text, r.theme.Paragraph, r.width)
	case format.KindHeading:
		style := r.theme.SubHeading
		if n.Level <= 1 {
			style = r.theme.Heading
		}
		return r.text(n.Text, style, r.width)
	case format.KindBulletList:
		markers := make([]string, len(n.Items))
		for i := range markers {
			markers[i] = bulletMarker
		}
		return r.list(n.Items, markers)
	case format.KindOrderedList:
		markers := make([]string, len(n.Items))
		last := strconv.Itoa(n.Start + len(n.Items) - 1)
		for i := range markers {
			num := strconv.Itoa(n.Start + i)
			markers[i] = strings.Repeat(" ", len(last)-len(num)) + num + ". "
		}
		return r.list(n.Items, markers)
	case format.KindRule:
		return r.theme.Rule.Render(strings.Repeat(ruleChar, r.width))
	case format.KindCodeBlock:
		return r.code(n.Language, n.Content)
	}
	return ""
}

// text wraps inline markup to width and styles each piece.
func (r *Renderer) text(markup string, base lipgloss.Style, width int) string {
	rows := wrapLines(splitWords(parseInline(markup)), width)
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = r.row(row, base)
	}
	return strings.Join(out, "\n")
}

func (r *Renderer) row(row line, base lipgloss.Style) string {
	var b strings.Builder
	for i, w := range row {
		if i > 0 {
			b.WriteString(base.Render(" "))
		}
		for _, s := range w {
			b.WriteString(r.spanStyle(base, s.kind).Render(s.text))
		}
	}
	return b.String()
}

// list draws items with a hanging indent under their markers.
func (r *Renderer) list(items, markers []string) string {
	out := make([]string, len(items))
	for i, item := range items {
		indent := runewidth.StringWidth(markers[i])
		body := r.text(item, r.theme.Paragraph, r.width-indent)
		lines := strings.Split(body, "\n")
		pad := strings.Repeat(" ", indent)
		for j := range lines {
			if j == 0 {
				lines[j] = r.theme.ListMarker.Render(markers[i]) + lines[j]
			} else {
				lines[j] = pad + lines[j]
			}
		}
		out[i] = strings.Join(lines, "\n")
	}
	return strings.Join(out, "\n")
}

// code draws a highlighted, framed code block with a language badge.
func (r *Renderer) code(language, content string) string {
	lines := highlight(content, language, r.style, r.theme.ColorProfile)
	if r.lineNumbers {
		for i := range lines {
			lines[i] = r.theme.CodeLineNum.Render(strconv.Itoa(i+1)) + lines[i]
		}
	}

	body := strings.Join(lines, "\n")
	if language != "" {
		body = r.theme.CodeLangBadge.Render(language) + "\n" + body
	}
	return r.theme.CodeBlock.MaxWidth(r.width).Render(body)
}
