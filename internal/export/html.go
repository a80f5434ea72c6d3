// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/rigrun-reveal/internal/format"
	"github.com/jeranaias/rigrun-reveal/internal/model"
	"github.com/jeranaias/rigrun-reveal/internal/storage"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to a standalone HTML page with
// embedded CSS.
type HTMLExporter struct {
	options   *Options
	formatter *chromahtml.Formatter
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{
		options:   opts,
		formatter: chromahtml.New(chromahtml.TabWidth(4)),
	}
}

// Export converts a conversation to HTML.
func (e *HTMLExporter) Export(conv *storage.Conversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(title(conv))))
	sb.WriteString("    <meta name=\"generator\" content=\"reveal\">\n")
	if !conv.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", conv.CreatedAt.Format(time.RFC3339)))
	}
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", theme))
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(conv))
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range conv.Messages {
		sb.WriteString(e.renderMessage(msg))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>reveal</strong> on %s</p>\n",
		formatTimestamp(e.options.now())))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(conv *storage.Conversation) string {
	var sb strings.Builder
	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(title(conv))))
	sb.WriteString("            <div class=\"metadata\">\n")
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(conv.CreatedAt)))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(conv.Messages)))
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")
	return sb.String()
}

func (e *HTMLExporter) renderMessage(msg *model.Message) string {
	nodes := format.Format(msg.Content, msg.Content)
	if len(nodes) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("            <article class=\"message %s\">\n", html.EscapeString(string(msg.Role))))
	sb.WriteString(fmt.Sprintf("                <div class=\"role\">%s", html.EscapeString(msg.Role.DisplayName())))
	if ts := formatShortTimestamp(msg.Timestamp); e.options.IncludeTimestamps && ts != "" {
		sb.WriteString(fmt.Sprintf(" <time>%s</time>", ts))
	}
	sb.WriteString("</div>\n")
	for _, n := range nodes {
		sb.WriteString(e.renderNode(n))
		sb.WriteString("\n")
	}
	sb.WriteString("            </article>\n")
	return sb.String()
}

// renderNode writes one block. Text and Items are already escaped by the
// formatter and carry only <strong> and <code> tags.
func (e *HTMLExporter) renderNode(n format.Node) string {
	switch n.Kind {
	case format.KindParagraph:
		return "<p>" + strings.ReplaceAll(n.Text, "\n", "<br>\n") + "</p>"
	case format.KindHeading:
		level := min(max(n.Level, 1), 6)
		return fmt.Sprintf("<h%d>%s</h%d>", level, n.Text, level)
	case format.KindBulletList:
		return "<ul>\n" + listItems(n.Items) + "</ul>"
	case format.KindOrderedList:
		if n.Start != 1 {
			return fmt.Sprintf("<ol start=\"%d\">\n%s</ol>", n.Start, listItems(n.Items))
		}
		return "<ol>\n" + listItems(n.Items) + "</ol>"
	case format.KindRule:
		return "<hr>"
	case format.KindCodeBlock:
		return e.renderCode(n.Language, n.Content)
	}
	return ""
}

func listItems(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("<li>" + item + "</li>\n")
	}
	return sb.String()
}

// renderCode highlights a code block with chroma, falling back to escaped
// plain text.
func (e *HTMLExporter) renderCode(language, code string) string {
	var sb strings.Builder
	sb.WriteString("<div class=\"code-block\">")
	if language != "" {
		sb.WriteString(fmt.Sprintf("<div class=\"code-lang\">%s</div>", html.EscapeString(language)))
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	style := chromaStyles.Get(e.options.HighlightStyle)

	var out strings.Builder
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err == nil {
		err = e.formatter.Format(&out, style, iterator)
	}
	if err != nil {
		out.Reset()
		out.WriteString("<pre><code>" + html.EscapeString(code) + "</code></pre>")
	}
	sb.WriteString(out.String())
	sb.WriteString("</div>")
	return sb.String()
}

const css = `    <style>
        body { margin: 0; font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; line-height: 1.6; }
        .dark-theme { background: #1a1b26; color: #c0caf5; }
        .light-theme { background: #ffffff; color: #1f2328; }
        .container { max-width: 860px; margin: 0 auto; padding: 2rem 1rem; }
        .header h1 { margin-bottom: 0.25rem; }
        .metadata { opacity: 0.7; font-size: 0.9rem; }
        .meta-item { margin-right: 1.5rem; }
        .message { margin: 1.5rem 0; padding: 1rem 1.25rem; border-radius: 8px; }
        .dark-theme .message.user { background: #24283b; }
        .dark-theme .message.assistant { background: #1f2335; }
        .light-theme .message.user { background: #f6f8fa; }
        .light-theme .message.assistant { background: #fbfbfd; }
        .role { font-weight: 600; margin-bottom: 0.5rem; }
        .role time { font-weight: normal; opacity: 0.6; margin-left: 0.5rem; font-size: 0.85rem; }
        .code-block { margin: 0.75rem 0; }
        .code-block pre { padding: 0.75rem 1rem; border-radius: 6px; overflow-x: auto; }
        .code-lang { font-size: 0.75rem; opacity: 0.7; text-transform: lowercase; }
        code { font-family: "JetBrains Mono", Menlo, Consolas, monospace; }
        .footer { margin-top: 3rem; opacity: 0.6; font-size: 0.85rem; }
    </style>
`
