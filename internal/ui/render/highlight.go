// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
)

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// formatterFor maps a terminal color profile to a chroma formatter name.
// An empty name means the terminal gets no colors at all.
func formatterFor(p termenv.Profile) string {
	switch p {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI256:
		return "terminal256"
	case termenv.ANSI:
		return "terminal16"
	}
	return ""
}

// highlight returns the lines of code, colored for profile with the named
// chroma style. It always returns exactly one entry per source line; on any
// failure the lines come back uncolored.
func highlight(code, language, style string, profile termenv.Profile) []string {
	plain := strings.Split(code, "\n")
	name := formatterFor(profile)
	if name == "" || code == "" {
		return plain
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	formatter := formatters.Get(name)
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return plain
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, chromaStyles.Get(style), iterator); err != nil {
		return plain
	}

	// Lexers may add a trailing newline; fold anything past the last source
	// line (usually just reset codes) back onto it.
	lines := strings.Split(buf.String(), "\n")
	if len(lines) > len(plain) {
		tail := strings.Join(lines[len(plain):], "")
		lines = lines[:len(plain)]
		lines[len(lines)-1] += tail
	}
	if len(lines) < len(plain) {
		return plain
	}
	return lines
}
