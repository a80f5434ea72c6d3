// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package format turns a partially revealed assistant response into
// structured display nodes.
//
// Code blocks are located in the FULL response, never in the revealed
// prefix, so a block appears in one piece with its final content as soon as
// its opening fence has been typed. Text between blocks is formatted line by
// line into paragraphs, headings, lists and rules.
package format

import (
	"sync"

	"github.com/jeranaias/rigrun-reveal/internal/classify"
)

// DefaultCacheSize is the number of full texts whose fence scan is memoized.
const DefaultCacheSize = 64

// =============================================================================
// FORMATTER
// =============================================================================

// Formatter formats revealed text. It memoizes fence scans per full text,
// since the same full text is formatted once per reveal tick.
// A Formatter is safe for concurrent use.
type Formatter struct {
	mu    sync.Mutex
	max   int
	spans map[string][]Span
	order []string
}

// NewFormatter creates a Formatter caching up to size scans.
func NewFormatter(size int) *Formatter {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Formatter{
		max:   size,
		spans: make(map[string][]Span, size),
	}
}

var defaultFormatter = NewFormatter(DefaultCacheSize)

// Format formats revealed with the package-level Formatter.
func Format(fullText, revealed string) []Node {
	return defaultFormatter.Format(fullText, revealed)
}

// Format returns the nodes for the revealed prefix of fullText.
//
// Every code block whose opening fence lies inside revealed is emitted whole.
// Text is emitted up to the first block that has not been reached; a partly
// typed fence is withheld. Format(t, t) yields exactly the blocks ScanFences(t)
// finds.
func (f *Formatter) Format(fullText, revealed string) []Node {
	spans := f.scan(fullText)

	var nodes []Node
	prev := 0
	for _, sp := range spans {
		if !reached(sp, revealed) {
			end := min(sp.Start, len(revealed))
			if end > prev {
				nodes = append(nodes, formatPlain(revealed[prev:end])...)
			}
			return nodes
		}
		if sp.Start > prev {
			nodes = append(nodes, formatPlain(revealed[prev:sp.Start])...)
		}
		nodes = append(nodes, CodeBlock(classify.Resolve(sp.Language, sp.Content), sp.Content))
		prev = sp.End
	}
	if prev < len(revealed) {
		nodes = append(nodes, formatPlain(revealed[prev:])...)
	}
	return nodes
}

// cached returns the number of cached scans.
func (f *Formatter) cached() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

func (f *Formatter) scan(fullText string) []Span {
	f.mu.Lock()
	if spans, ok := f.spans[fullText]; ok {
		f.mu.Unlock()
		return spans
	}
	f.mu.Unlock()

	spans := ScanFences(fullText)

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.spans[fullText]; !ok {
		if len(f.order) >= f.max {
			oldest := f.order[0]
			f.order = f.order[1:]
			delete(f.spans, oldest)
		}
		f.spans[fullText] = spans
		f.order = append(f.order, fullText)
	}
	return spans
}
