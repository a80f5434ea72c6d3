// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/rigrun-reveal/internal/format"
	"github.com/jeranaias/rigrun-reveal/internal/storage"
	"github.com/jeranaias/rigrun-reveal/internal/ui/render"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a conversation to Markdown.
func (e *MarkdownExporter) Export(conv *storage.Conversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(title(conv))))
		if !conv.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("date: %s\n", conv.CreatedAt.Format(time.RFC3339)))
		}
		if !conv.UpdatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("updated: %s\n", conv.UpdatedAt.Format(time.RFC3339)))
		}
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(conv.Messages)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", e.options.now().Format(time.RFC3339)))
		sb.WriteString("generator: reveal\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n", escapeMarkdown(title(conv))))

	for _, msg := range conv.Messages {
		nodes := format.Format(msg.Content, msg.Content)
		if len(nodes) == 0 {
			continue
		}
		label := msg.Role.DisplayName()
		if ts := formatShortTimestamp(msg.Timestamp); e.options.IncludeTimestamps && ts != "" {
			sb.WriteString(fmt.Sprintf("\n### %s <sub>%s</sub>\n\n", label, ts))
		} else {
			sb.WriteString(fmt.Sprintf("\n### %s\n\n", label))
		}
		sb.WriteString(render.Markdown(nodes))
		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// escapeYAML quotes a frontmatter value so newlines and colons cannot start
// a new key.
func escapeYAML(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}

// escapeMarkdown neutralizes characters that would change a heading.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`, "\n", " ")
	return r.Replace(s)
}
