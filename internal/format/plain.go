// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// =============================================================================
// LINE CLASSIFICATION
// =============================================================================

type lineKind int

const (
	lineBlank lineKind = iota
	lineHeading
	lineRule
	lineBullet
	lineOrdered
	lineText
)

// line is one classified source line.
type line struct {
	kind   lineKind
	indent int
	level  int    // heading level
	number int    // ordered list number
	text   string // content without the marker
}

// maxHeadingLevel bounds the number of leading # characters.
const maxHeadingLevel = 6

func classifyLine(raw string) line {
	raw = strings.TrimRight(raw, " \t\r")
	trimmed := strings.TrimLeft(raw, " \t")
	l := line{indent: len(raw) - len(trimmed)}

	if trimmed == "" {
		l.kind = lineBlank
		return l
	}

	if level := headingLevel(trimmed); level > 0 {
		l.kind = lineHeading
		l.level = level
		l.text = strings.TrimSpace(trimmed[level:])
		return l
	}

	if len(trimmed) >= 3 && strings.Trim(trimmed, "-") == "" {
		l.kind = lineRule
		return l
	}

	if rest, ok := bulletText(trimmed); ok {
		l.kind = lineBullet
		l.text = rest
		return l
	}

	if n, rest, ok := orderedText(trimmed); ok {
		l.kind = lineOrdered
		l.number = n
		l.text = rest
		return l
	}

	l.kind = lineText
	l.text = trimmed
	return l
}

// headingLevel returns the number of leading # characters when they are
// followed by whitespace and text, or 0. Levels run from 1 to
// maxHeadingLevel.
func headingLevel(s string) int {
	n := 0
	for n < len(s) && s[n] == '#' {
		n++
	}
	if n == 0 || n > maxHeadingLevel || n >= len(s) {
		return 0
	}
	if s[n] != ' ' && s[n] != '\t' {
		return 0
	}
	if strings.TrimSpace(s[n:]) == "" {
		return 0
	}
	return n
}

func bulletText(s string) (string, bool) {
	if len(s) < 2 || (s[0] != '-' && s[0] != '*') {
		return "", false
	}
	if s[1] != ' ' && s[1] != '\t' {
		return "", false
	}
	return strings.TrimSpace(s[2:]), true
}

func orderedText(s string) (int, string, bool) {
	digits := 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits+1 >= len(s) || s[digits] != '.' {
		return 0, "", false
	}
	if s[digits+1] != ' ' && s[digits+1] != '\t' {
		return 0, "", false
	}
	n, err := strconv.Atoi(s[:digits])
	if err != nil {
		return 0, "", false
	}
	return n, strings.TrimSpace(s[digits+1:]), true
}

// isBareMarker reports whether s is a list marker with nothing after it.
func isBareMarker(s string) bool {
	s = strings.TrimSpace(s)
	if s == "-" || s == "*" {
		return true
	}
	if len(s) < 2 || s[len(s)-1] != '.' {
		return false
	}
	for i := 0; i < len(s)-1; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// mergeBareMarkers joins a marker standing alone on its line ("1." or "-")
// with the next non-blank line, so "1.\n\nOpen the file" reads as one item.
func mergeBareMarkers(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		if !isBareMarker(lines[i]) {
			out = append(out, lines[i])
			continue
		}
		j := i + 1
		for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
			j++
		}
		if j == len(lines) {
			out = append(out, lines[i])
			continue
		}
		marker := strings.TrimSpace(lines[i])
		if isBareMarker(lines[j]) {
			// Two markers in a row; keep the first as-is.
			out = append(out, lines[i])
			continue
		}
		indent := lines[i][:len(lines[i])-len(strings.TrimLeft(lines[i], " \t"))]
		out = append(out, indent+marker+" "+strings.TrimSpace(lines[j]))
		i = j
	}
	return out
}

// =============================================================================
// SENTENCE SPLITTING
// =============================================================================

// splitSentences breaks s after '.', '!' or '?' when whitespace and an
// uppercase letter follow. A '.' that ends an ordered-list number ("2.") does
// not count as a sentence end.
func splitSentences(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		j := i + 1
		for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
			j++
		}
		if j == i+1 || j >= len(s) {
			continue
		}
		r, _ := utf8.DecodeRuneInString(s[j:])
		if !unicode.IsUpper(r) {
			continue
		}
		if c == '.' && endsListNumber(s[start:i]) {
			continue
		}
		parts = append(parts, s[start:i+1])
		start = j
		i = j - 1
	}
	return append(parts, s[start:])
}

// endsListNumber reports whether the word before a '.' is all digits.
func endsListNumber(before string) bool {
	k := len(before)
	for k > 0 && before[k-1] >= '0' && before[k-1] <= '9' {
		k--
	}
	if k == len(before) {
		return false
	}
	return k == 0 || before[k-1] == ' ' || before[k-1] == '\t'
}

// =============================================================================
// BLOCK BUILDER
// =============================================================================

// builder groups classified lines into nodes.
type builder struct {
	nodes []Node

	para []string

	listKind  Kind
	listStart int
	items     []string
}

func (b *builder) flushPara() {
	if len(b.para) == 0 {
		return
	}
	b.nodes = append(b.nodes, Paragraph(Inline(strings.Join(b.para, "\n"))))
	b.para = nil
}

func (b *builder) flushList() {
	if len(b.items) == 0 {
		return
	}
	items := make([]string, len(b.items))
	for i, it := range b.items {
		items[i] = Inline(it)
	}
	if b.listKind == KindOrderedList {
		b.nodes = append(b.nodes, OrderedListFrom(b.listStart, items...))
	} else {
		b.nodes = append(b.nodes, BulletList(items...))
	}
	b.items = nil
}

func (b *builder) flush() {
	b.flushPara()
	b.flushList()
}

func (b *builder) addItem(kind Kind, number int, text string) {
	b.flushPara()
	if len(b.items) > 0 && b.listKind != kind {
		b.flushList()
	}
	if len(b.items) == 0 {
		b.listKind = kind
		b.listStart = number
	}
	b.items = append(b.items, text)
}

func (b *builder) inList() bool { return len(b.items) > 0 }

// formatPlain converts a text segment that contains no code blocks into nodes.
func formatPlain(segment string) []Node {
	segment = strings.ReplaceAll(segment, "\r\n", "\n")
	if strings.TrimSpace(segment) == "" {
		return nil
	}

	raw := mergeBareMarkers(strings.Split(segment, "\n"))
	lines := make([]line, len(raw))
	for i, r := range raw {
		lines[i] = classifyLine(r)
	}

	var b builder
	for i, l := range lines {
		switch l.kind {
		case lineBlank:
			b.flushPara()
			// A blank line between items of the same list keeps the list open.
			if b.inList() && !continuesList(lines[i+1:], b.listKind) {
				b.flushList()
			}

		case lineHeading:
			b.flush()
			b.nodes = append(b.nodes, Heading(l.level, Inline(l.text)))

		case lineRule:
			b.flush()
			b.nodes = append(b.nodes, Rule())

		case lineBullet:
			b.addItem(KindBulletList, 0, l.text)

		case lineOrdered:
			b.addItem(KindOrderedList, l.number, l.text)

		case lineText:
			if b.inList() && l.indent > 0 && (i == 0 || lines[i-1].kind != lineBlank) {
				last := len(b.items) - 1
				b.items[last] = strings.TrimSpace(b.items[last] + " " + l.text)
				continue
			}
			// Every line break ends the paragraph.
			b.flush()
			parts := splitSentences(l.text)
			b.para = append(b.para, parts[0])
			for _, p := range parts[1:] {
				b.flushPara()
				b.para = append(b.para, p)
			}
		}
	}
	b.flush()
	return b.nodes
}

// continuesList reports whether the next non-blank line is an item of kind.
func continuesList(rest []line, kind Kind) bool {
	for _, l := range rest {
		switch l.kind {
		case lineBlank:
			continue
		case lineBullet:
			return kind == KindBulletList
		case lineOrdered:
			return kind == KindOrderedList
		default:
			return false
		}
	}
	return false
}
