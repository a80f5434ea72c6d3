// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strconv"
	"strings"

	"github.com/jeranaias/rigrun-reveal/internal/format"
)

// Markdown turns nodes back into Markdown, for renderers such as glamour
// that take Markdown input.
func Markdown(nodes []format.Node) string {
	blocks := make([]string, 0, len(nodes))
	for _, n := range nodes {
		switch n.Kind {
		case format.KindParagraph:
			blocks = append(blocks, inlineMarkdown(n.Text))
		case format.KindHeading:
			blocks = append(blocks, strings.Repeat("#", n.Level)+" "+inlineMarkdown(n.Text))
		case format.KindBulletList:
			items := make([]string, len(n.Items))
			for i, item := range n.Items {
				items[i] = "- " + inlineMarkdown(item)
			}
			blocks = append(blocks, strings.Join(items, "\n"))
		case format.KindOrderedList:
			items := make([]string, len(n.Items))
			for i, item := range n.Items {
				items[i] = strconv.Itoa(n.Start+i) + ". " + inlineMarkdown(item)
			}
			blocks = append(blocks, strings.Join(items, "\n"))
		case format.KindRule:
			blocks = append(blocks, "---")
		case format.KindCodeBlock:
			blocks = append(blocks, "```"+n.Language+"\n"+n.Content+"\n```")
		}
	}
	return strings.Join(blocks, "\n\n")
}

// inlineMarkdown converts formatter markup back to Markdown emphasis.
func inlineMarkdown(markup string) string {
	var b strings.Builder
	var kind spanKind
	for _, s := range parseInline(markup) {
		if s.kind != kind {
			closeOpen(&b, kind, s.kind)
			kind = s.kind
		}
		b.WriteString(s.text)
	}
	closeOpen(&b, kind, 0)
	return b.String()
}

// closeOpen writes the markers that move from decoration set from to to.
func closeOpen(b *strings.Builder, from, to spanKind) {
	if from&kindCode != 0 && to&kindCode == 0 {
		b.WriteString("`")
	}
	if from&kindStrong != 0 && to&kindStrong == 0 {
		b.WriteString("**")
	}
	if to&kindStrong != 0 && from&kindStrong == 0 {
		b.WriteString("**")
	}
	if to&kindCode != 0 && from&kindCode == 0 {
		b.WriteString("`")
	}
}
