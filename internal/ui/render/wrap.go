// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// =============================================================================
// CONTENT WRAPPING WITH RUNEWIDTH SUPPORT
// =============================================================================

// word is a run of non-space text. It may cross decoration boundaries, as in
// "**bold**," where the comma must stay on the same line.
type word []span

func (w word) width() int {
	n := 0
	for _, s := range w {
		n += runewidth.StringWidth(s.text)
	}
	return n
}

// line is a sequence of words joined by single spaces.
type line []word

// splitWords breaks spans into lines of words at newlines and spaces.
func splitWords(spans []span) []line {
	var (
		lines = []line{nil}
		cur   word
		buf   strings.Builder
		kind  spanKind
	)
	flushPiece := func() {
		if buf.Len() > 0 {
			cur = append(cur, span{text: buf.String(), kind: kind})
			buf.Reset()
		}
	}
	flushWord := func() {
		flushPiece()
		if len(cur) > 0 {
			lines[len(lines)-1] = append(lines[len(lines)-1], cur)
			cur = nil
		}
	}

	for _, s := range spans {
		if s.kind != kind {
			flushPiece()
			kind = s.kind
		}
		for _, r := range s.text {
			switch r {
			case ' ', '\t':
				flushWord()
			case '\n':
				flushWord()
				lines = append(lines, nil)
			default:
				buf.WriteRune(r)
			}
		}
	}
	flushWord()
	return lines
}

// wrapLines lays words out into rows no wider than width columns. Words wider
// than a row are broken by character.
func wrapLines(lines []line, width int) []line {
	if width <= 0 {
		return lines
	}
	var rows []line
	for _, l := range lines {
		var (
			row      line
			rowWidth int
		)
		for _, w := range l {
			ww := w.width()
			sep := 0
			if len(row) > 0 {
				sep = 1
			}
			if rowWidth+sep+ww <= width {
				row = append(row, w)
				rowWidth += sep + ww
				continue
			}
			if len(row) > 0 {
				rows = append(rows, row)
				row, rowWidth = nil, 0
			}
			if ww <= width {
				row = line{w}
				rowWidth = ww
				continue
			}
			chunks := breakWord(w, width)
			for _, c := range chunks[:len(chunks)-1] {
				rows = append(rows, line{c})
			}
			last := chunks[len(chunks)-1]
			row = line{last}
			rowWidth = last.width()
		}
		rows = append(rows, row)
	}
	return rows
}

// breakWord splits w into pieces of at most width columns.
func breakWord(w word, width int) []word {
	var (
		out  []word
		cur  word
		buf  strings.Builder
		used int
		kind spanKind
	)
	flushPiece := func() {
		if buf.Len() > 0 {
			cur = append(cur, span{text: buf.String(), kind: kind})
			buf.Reset()
		}
	}
	for _, s := range w {
		if s.kind != kind {
			flushPiece()
			kind = s.kind
		}
		for _, r := range s.text {
			rw := runewidth.RuneWidth(r)
			if used+rw > width && used > 0 {
				flushPiece()
				out = append(out, cur)
				cur, used = nil, 0
			}
			buf.WriteRune(r)
			used += rw
		}
	}
	flushPiece()
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
