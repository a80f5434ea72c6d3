// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversations to files.
//
// # Supported Formats
//
//   - Markdown: normalized Markdown with optional YAML frontmatter
//   - HTML: a standalone page with highlighted code blocks
//   - JSON: the transcript format, readable by reveal tui and reveal import
//
// Message content goes through the same formatter as the terminal view, so
// an export shows what the viewer shows.
//
// # Usage
//
//	exp, err := export.ForFormat("html", opts)
//	path, err := export.ExportToFile(conv, exp, opts)
package export
