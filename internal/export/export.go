// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/rigrun-reveal/internal/storage"
	"github.com/jeranaias/rigrun-reveal/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a conversation to one file format.
type Exporter interface {
	// Export converts a conversation to the target format and returns the content.
	Export(conv *storage.Conversation) ([]byte, error)

	// FileExtension returns the file extension, with the dot.
	FileExtension() string

	// MimeType returns the MIME type of the format.
	MimeType() string
}

// Formats lists the names ForFormat accepts.
var Formats = []string{"md", "html", "json"}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where ExportToFile writes. Default: current directory.
	OutputDir string

	// IncludeMetadata adds a title block with dates and message count.
	IncludeMetadata bool

	// IncludeTimestamps adds each message's time to its heading.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark"). Default: "dark".
	Theme string

	// HighlightStyle is the chroma style for HTML code blocks.
	HighlightStyle string

	// Now stamps the export. Nil uses time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
		HighlightStyle:    "monokai",
	}
}

func (o *Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// ForFormat returns the exporter for a format name or file extension.
func ForFormat(name string, opts *Options) (Exporter, error) {
	switch strings.TrimPrefix(strings.ToLower(name), ".") {
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	}
	return nil, fmt.Errorf("unknown export format %q (want one of %s)", name, strings.Join(Formats, ", "))
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports conv into opts.OutputDir and returns the file path.
// The file name is built from the title and the export time.
func ExportToFile(conv *storage.Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("conversation_%s_%s%s",
		sanitizeFilename(conv.Title),
		opts.now().Format("20060102_150405"),
		exporter.FileExtension(),
	)
	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	outputPath := filepath.Join(dir, filename)
	if err := util.AtomicWriteFileWithDir(outputPath, content, 0644, 0755); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func validate(conv *storage.Conversation) error {
	if conv == nil {
		return errors.New("conversation is nil")
	}
	if len(conv.Messages) == 0 {
		return errors.New("conversation has no messages")
	}
	return nil
}

// title returns the conversation title, or a placeholder.
func title(conv *storage.Conversation) string {
	if t := strings.TrimSpace(conv.Title); t != "" {
		return t
	}
	return "Conversation"
}

// sanitizeFilename replaces characters that are invalid in file names on
// common platforms.
func sanitizeFilename(s string) string {
	s = util.TruncateRunes(s, 50)

	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "conversation"
	}
	return b.String()
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("January 2, 2006 at 3:04 PM")
}

func formatShortTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("15:04")
}
