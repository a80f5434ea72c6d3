// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package classify

import (
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// aliases maps common fence tags onto the tags Classify produces.
var aliases = map[string]string{
	"golang":     Go,
	"js":         JavaScript,
	"jsx":        JavaScript,
	"mjs":        JavaScript,
	"cjs":        JavaScript,
	"node":       JavaScript,
	"ts":         TypeScript,
	"tsx":        TypeScript,
	"py":         Python,
	"py3":        Python,
	"python3":    Python,
	"rb":         Ruby,
	"rs":         Rust,
	"c++":        CPP,
	"cc":         CPP,
	"cxx":        CPP,
	"hpp":        CPP,
	"h":          C,
	"cs":         CSharp,
	"c#":         CSharp,
	"sh":         Bash,
	"shell":      Bash,
	"zsh":        Bash,
	"console":    Bash,
	"yml":        YAML,
	"docker":     Dockerfile,
	"htm":        HTML,
	"xhtml":      HTML,
	"postgresql": SQL,
	"mysql":      SQL,
	"sqlite":     SQL,
	"text":       PlainText,
	"txt":        PlainText,
	"plain":      PlainText,
}

var canonical = map[string]bool{
	Go: true, JSON: true, Rust: true, CPP: true, C: true, CSharp: true, Java: true,
	PHP: true, HTML: true, TypeScript: true, JavaScript: true, Ruby: true,
	Python: true, SQL: true, Dockerfile: true, CSS: true, YAML: true, Bash: true,
	PlainText: true,
}

// Normalize maps a declared fence tag onto a canonical language tag. Tags the
// alias table does not know are resolved through chroma's lexer registry; tags
// chroma does not know either are returned lower-cased, since a declared
// language is trusted over a guess. An empty tag stays empty.
func Normalize(tag string) string {
	t := strings.ToLower(strings.TrimSpace(tag))
	if t == "" {
		return ""
	}
	if canonical[t] {
		return t
	}
	if a, ok := aliases[t]; ok {
		return a
	}
	if lexer := lexers.Get(t); lexer != nil {
		name := strings.ToLower(lexer.Config().Name)
		if a, ok := aliases[name]; ok {
			return a
		}
		return strings.ReplaceAll(name, " ", "-")
	}
	return t
}

// Resolve returns the language for a code block: the normalised declared tag
// when there is one, otherwise the classifier's guess.
func Resolve(declared, body string) string {
	if lang := Normalize(declared); lang != "" {
		return lang
	}
	return Classify(body)
}
