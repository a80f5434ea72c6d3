// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"html"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// spanKind is a set of inline decorations.
type spanKind uint8

const (
	kindStrong spanKind = 1 << iota
	kindCode
)

// span is a run of unescaped text with one decoration set.
type span struct {
	text string
	kind spanKind
}

var inlineTags = []struct {
	tag  string
	kind spanKind
	open bool
}{
	{"<strong>", kindStrong, true},
	{"</strong>", kindStrong, false},
	{"<code>", kindCode, true},
	{"</code>", kindCode, false},
}

// parseInline splits formatter markup into decorated spans. Every '<' in the
// markup starts a tag because the formatter escapes literal text.
func parseInline(markup string) []span {
	var (
		spans []span
		kind  spanKind
		start int
	)
	emit := func(end int) {
		if end > start {
			spans = append(spans, span{text: html.UnescapeString(markup[start:end]), kind: kind})
		}
	}

	for i := 0; i < len(markup); {
		if markup[i] != '<' {
			i++
			continue
		}
		matched := false
		for _, t := range inlineTags {
			if strings.HasPrefix(markup[i:], t.tag) {
				emit(i)
				if t.open {
					kind |= t.kind
				} else {
					kind &^= t.kind
				}
				i += len(t.tag)
				start = i
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	emit(len(markup))
	return spans
}

// spanStyle picks the style of a decoration set on top of base.
func (r *Renderer) spanStyle(base lipgloss.Style, kind spanKind) lipgloss.Style {
	switch {
	case kind&kindCode != 0 && kind&kindStrong != 0:
		return r.theme.InlineCode.Bold(true)
	case kind&kindCode != 0:
		return r.theme.InlineCode
	case kind&kindStrong != 0:
		return base.Bold(true)
	}
	return base
}
