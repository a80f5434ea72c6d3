// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"fmt"
	"strings"
)

// =============================================================================
// NODE TYPES
// =============================================================================

// Kind identifies the variant a Node holds.
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindBulletList
	KindOrderedList
	KindRule
	KindCodeBlock
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindParagraph:
		return "Paragraph"
	case KindHeading:
		return "Heading"
	case KindBulletList:
		return "BulletList"
	case KindOrderedList:
		return "OrderedList"
	case KindRule:
		return "Rule"
	case KindCodeBlock:
		return "CodeBlock"
	default:
		return "Unknown"
	}
}

// Node is one rendered block. Only the fields of its Kind are set:
//
//	Paragraph    Text
//	Heading      Level, Text
//	BulletList   Items
//	OrderedList  Start, Items
//	Rule         -
//	CodeBlock    Language, Content
//
// Text and Items hold pre-escaped inline markup (<strong>, <code>). Code
// block Content is the raw code.
type Node struct {
	Kind     Kind
	Level    int
	Text     string
	Items    []string
	Start    int
	Language string
	Content  string
}

// Paragraph builds a paragraph node.
func Paragraph(text string) Node {
	return Node{Kind: KindParagraph, Text: text}
}

// Heading builds a heading node.
func Heading(level int, text string) Node {
	return Node{Kind: KindHeading, Level: level, Text: text}
}

// BulletList builds a bullet list node.
func BulletList(items ...string) Node {
	return Node{Kind: KindBulletList, Items: items}
}

// OrderedList builds an ordered list starting at 1.
func OrderedList(items ...string) Node {
	return OrderedListFrom(1, items...)
}

// OrderedListFrom builds an ordered list whose first item carries number start.
func OrderedListFrom(start int, items ...string) Node {
	return Node{Kind: KindOrderedList, Start: start, Items: items}
}

// Rule builds a horizontal rule node.
func Rule() Node {
	return Node{Kind: KindRule}
}

// CodeBlock builds a code block node.
func CodeBlock(language, content string) Node {
	return Node{Kind: KindCodeBlock, Language: language, Content: content}
}

// String returns a compact debug representation.
func (n Node) String() string {
	switch n.Kind {
	case KindParagraph:
		return fmt.Sprintf("Paragraph(%q)", n.Text)
	case KindHeading:
		return fmt.Sprintf("Heading(%d, %q)", n.Level, n.Text)
	case KindBulletList:
		return fmt.Sprintf("BulletList(%s)", quoteAll(n.Items))
	case KindOrderedList:
		return fmt.Sprintf("OrderedList(%d, %s)", n.Start, quoteAll(n.Items))
	case KindRule:
		return "Rule"
	case KindCodeBlock:
		return fmt.Sprintf("CodeBlock(%q, %q)", n.Language, n.Content)
	default:
		return "Unknown"
	}
}

func quoteAll(items []string) string {
	q := make([]string, len(items))
	for i, it := range items {
		q[i] = fmt.Sprintf("%q", it)
	}
	return "[" + strings.Join(q, ", ") + "]"
}
