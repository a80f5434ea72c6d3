// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package classify tags code blocks with a language name.
//
// Classification is a fixed, ordered chain of keyword checks over the
// case-folded code body. The first rule that matches wins, so the order of
// the rules is part of the contract: several languages share surface keywords
// ("class", "import", "def") and the earlier, more specific rule must win.
package classify

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
)

// Language tags produced by Classify and Normalize.
const (
	Go         = "go"
	JSON       = "json"
	Rust       = "rust"
	CPP        = "cpp"
	C          = "c"
	CSharp     = "csharp"
	Java       = "java"
	PHP        = "php"
	HTML       = "html"
	TypeScript = "typescript"
	JavaScript = "javascript"
	Ruby       = "ruby"
	Python     = "python"
	SQL        = "sql"
	Dockerfile = "dockerfile"
	CSS        = "css"
	YAML       = "yaml"
	Bash       = "bash"
	PlainText  = "plaintext"
)

// rule is one step of the classification chain.
type rule struct {
	lang  string
	match func(c code) bool
}

// code is the pre-processed input handed to every rule.
type code struct {
	raw    string   // trimmed original text
	folded string   // case-folded text
	lines  []string // case-folded, left-trimmed lines
}

func (c code) has(subs ...string) bool {
	for _, s := range subs {
		if !strings.Contains(c.folded, s) {
			return false
		}
	}
	return true
}

func (c code) any(subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(c.folded, s) {
			return true
		}
	}
	return false
}

// lineStarts reports whether any line begins with one of the prefixes.
func (c code) lineStarts(prefixes ...string) bool {
	for _, l := range c.lines {
		for _, p := range prefixes {
			if strings.HasPrefix(l, p) {
				return true
			}
		}
	}
	return false
}

// lineIs reports whether any line equals s exactly.
func (c code) lineIs(s string) bool {
	for _, l := range c.lines {
		if strings.TrimSpace(l) == s {
			return true
		}
	}
	return false
}

var rules = []rule{
	{JSON, func(c code) bool {
		t := c.raw
		return (strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[")) && json.Valid([]byte(t))
	}},
	{Go, func(c code) bool {
		return (c.lineStarts("package ") && c.has("func ")) ||
			c.has("func main()") || c.any("fmt.print", ":= range ", "if err != nil", " interface {", " struct {")
	}},
	{Rust, func(c code) bool {
		return c.any("fn main()", "println!(", "let mut ", "impl ", "pub fn ", "use std::")
	}},
	{CPP, func(c code) bool {
		return c.any("std::", "#include <iostream>", "cout <<", "template<", "template <") ||
			(c.has("#include") && c.has("class "))
	}},
	{C, func(c code) bool {
		return c.has("#include") || (c.has("int main(") && c.has("printf("))
	}},
	{CSharp, func(c code) bool {
		return c.any("using system", "console.writeline", "namespace ") ||
			(c.has("public class ") && c.any(" string[] args", "{ get;"))
	}},
	{Java, func(c code) bool {
		return c.any("public static void main", "system.out.println", "import java.") ||
			c.lineStarts("public class ", "private class ", "public interface ")
	}},
	{PHP, func(c code) bool {
		return c.any("<?php", "<?=") || (c.has("$") && c.has("echo ") && c.has(";"))
	}},
	{HTML, func(c code) bool {
		return c.any("<!doctype html", "<html", "<head>", "<body")
	}},
	{Ruby, func(c code) bool {
		return (c.lineStarts("def ", "class ", "module ") && c.lineIs("end")) ||
			c.lineStarts("puts ", "require '") ||
			c.any(".each do", "attr_accessor")
	}},
	{TypeScript, func(c code) bool {
		return c.any("interface ", "import type ", ": string", ": number", ": boolean", "as const") &&
			c.any("const ", "let ", "function ", "export ", "interface ", "type ")
	}},
	{JavaScript, func(c code) bool {
		return c.any("console.log", "function ", "=> ", "document.", "require(", "module.exports",
			"import react", "export default") ||
			(c.any("const ", "let ", "var ") && c.has(";"))
	}},
	{Python, func(c code) bool {
		return c.lineStarts("def ", "elif ", "print(") ||
			(c.lineStarts("from ") && c.has(" import ")) ||
			(c.lineStarts("import ") && c.has("print(")) ||
			c.any("self.", "__name__", "print(f\"", "print(f'")
	}},
	{SQL, func(c code) bool {
		return (c.has("select ") && c.has("from ")) ||
			c.any("create table", "insert into", "alter table", "drop table") ||
			(c.lineStarts("update ") && c.has(" set "))
	}},
	{Dockerfile, func(c code) bool {
		return c.lineStarts("from ") && (c.lineStarts("run ", "cmd ", "copy ", "entrypoint ", "workdir "))
	}},
	{HTML, func(c code) bool {
		return c.any("<div", "<span", "<p>", "<a href", "<ul>", "</")
	}},
	{CSS, func(c code) bool {
		return c.has("{") && c.has(":") && c.has(";") &&
			c.any("color", "margin", "padding", "display", "font-", "width", "border")
	}},
	{Bash, func(c code) bool {
		return c.any("#!/bin/bash", "#!/bin/sh", "#!/usr/bin/env bash") ||
			c.lineStarts("$ ", "echo ", "sudo ", "apt-get ", "apt ", "brew ", "npm ", "yarn ", "pip ",
				"go get ", "go install ", "go run ", "cd ", "mkdir ", "export ", "curl ", "git ", "chmod ", "docker ")
	}},
	{YAML, func(c code) bool {
		return looksLikeYAML(c.lines)
	}},
}

// Order returns the language tags in the order the chain evaluates them. A tag
// may appear more than once when it has a strong and a weak rule.
func Order() []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.lang
	}
	return out
}

// Classify returns the language tag for a code body, or PlainText when no rule
// matches. The result depends only on the input.
func Classify(src string) string {
	c := prepare(src)
	if c.raw == "" {
		return PlainText
	}
	for _, r := range rules {
		if r.match(c) {
			return r.lang
		}
	}
	return PlainText
}

func prepare(src string) code {
	raw := strings.TrimSpace(src)
	// A Caser is stateful; build one per call so Classify stays goroutine safe.
	folded := cases.Fold().String(raw)
	lines := strings.Split(folded, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimLeft(strings.TrimRight(l, "\r"), " \t")
	}
	return code{raw: raw, folded: folded, lines: lines}
}

// looksLikeYAML requires at least two key/value or sequence lines and no line
// that is neither.
func looksLikeYAML(lines []string) bool {
	hits := 0
	for _, l := range lines {
		if l == "" || strings.HasPrefix(l, "#") || l == "---" {
			continue
		}
		if strings.HasPrefix(l, "- ") {
			hits++
			continue
		}
		key, _, ok := strings.Cut(l, ":")
		if !ok || key == "" || strings.ContainsAny(key, " {}();\"") {
			return false
		}
		hits++
	}
	return hits >= 2
}
