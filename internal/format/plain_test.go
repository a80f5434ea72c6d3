// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPlain(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Node
	}{
		{
			name: "line break ends paragraph",
			text: "first line\nsecond line",
			want: []Node{Paragraph("first line"), Paragraph("second line")},
		},
		{
			name: "sentence end before line break",
			text: "Hello.\nWorld",
			want: []Node{Paragraph("Hello."), Paragraph("World")},
		},
		{
			name: "heading levels",
			text: "# One\n## Two\n###### Six",
			want: []Node{Heading(1, "One"), Heading(2, "Two"), Heading(6, "Six")},
		},
		{
			name: "too many hashes is text",
			text: "####### seven",
			want: []Node{Paragraph("####### seven")},
		},
		{
			name: "hash without space is text",
			text: "#hashtag",
			want: []Node{Paragraph("#hashtag")},
		},
		{
			name: "heading flushes paragraph",
			text: "intro\n## Next\nbody",
			want: []Node{Paragraph("intro"), Heading(2, "Next"), Paragraph("body")},
		},
		{
			name: "rule",
			text: "above\n-----\nbelow",
			want: []Node{Paragraph("above"), Rule(), Paragraph("below")},
		},
		{
			name: "bullets with both markers",
			text: "- one\n* two",
			want: []Node{BulletList("one", "two")},
		},
		{
			name: "list kinds do not mix",
			text: "- a\n1. b",
			want: []Node{BulletList("a"), OrderedList("b")},
		},
		{
			name: "ordered list keeps start number",
			text: "3. third\n4. fourth",
			want: []Node{OrderedListFrom(3, "third", "fourth")},
		},
		{
			name: "bare marker merged with next line",
			text: "1.\n\nOpen the file\n2.\nSave it",
			want: []Node{OrderedList("Open the file", "Save it")},
		},
		{
			name: "bare bullet merged",
			text: "-\nitem",
			want: []Node{BulletList("item")},
		},
		{
			name: "indented continuation",
			text: "- first part\n  continues here\n- second",
			want: []Node{BulletList("first part continues here", "second")},
		},
		{
			name: "loose list stays one node",
			text: "1. a\n\n2. b",
			want: []Node{OrderedList("a", "b")},
		},
		{
			name: "text after list starts paragraph",
			text: "- a\nafter",
			want: []Node{BulletList("a"), Paragraph("after")},
		},
		{
			name: "blank then different kind ends list",
			text: "- a\n\nafter",
			want: []Node{BulletList("a"), Paragraph("after")},
		},
		{
			name: "inline markup in heading and items",
			text: "# Use **bold**\n- run `ls`",
			want: []Node{Heading(1, "Use <strong>bold</strong>"), BulletList("run <code>ls</code>")},
		},
		{
			name: "crlf line endings",
			text: "a\r\n\r\nb",
			want: []Node{Paragraph("a"), Paragraph("b")},
		},
		{
			name: "whitespace only",
			text: " \n\t\n",
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatPlain(tc.text))
		})
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"two sentences", "It works. Try it.", []string{"It works.", "Try it."}},
		{"question and bang", "Why? Because! Done", []string{"Why?", "Because!", "Done"}},
		{"lowercase follows", "e.g. something else", []string{"e.g. something else"}},
		{"no space", "v1.2.Three", []string{"v1.2.Three"}},
		{"list number", "Steps are 1. Open it", []string{"Steps are 1. Open it"}},
		{"number in word", "Use v2. Then stop", []string{"Use v2.", "Then stop"}},
		{"unicode upper", "Fin. Élan", []string{"Fin.", "Élan"}},
		{"trailing punctuation", "Done.", []string{"Done."}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, splitSentences(tc.in))
		})
	}
}

func TestInline(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"**bold**", "<strong>bold</strong>"},
		{"`code`", "<code>code</code>"},
		{"a <b> & c", "a &lt;b&gt; &amp; c"},
		{"`<tag>`", "<code>&lt;tag&gt;</code>"},
		{"**bold `code`**", "<strong>bold <code>code</code></strong>"},
		{"unclosed **bold", "unclosed **bold"},
		{"unclosed `tick", "unclosed `tick"},
		{"empty ``", "empty ``"},
		{"héllo **wörld**", "héllo <strong>wörld</strong>"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Inline(tc.in))
		})
	}
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "bold and <x> code", StripTags(Inline("**bold** and `<x>` code")))
}
