// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/rigrun-reveal/internal/model"
	"github.com/jeranaias/rigrun-reveal/internal/storage"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter writes the transcript format: an object with a "messages"
// array. The output can be imported again or watched by the viewer.
// Options do not filter JSON exports.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonDocument struct {
	ID        string           `json:"id,omitempty"`
	Title     string           `json:"title,omitempty"`
	CreatedAt *time.Time       `json:"created_at,omitempty"`
	Messages  []*model.Message `json:"messages"`
}

// Export converts a conversation to JSON.
func (e *JSONExporter) Export(conv *storage.Conversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}
	doc := jsonDocument{
		ID:       conv.ID,
		Title:    conv.Title,
		Messages: conv.Messages,
	}
	if !conv.CreatedAt.IsZero() {
		created := conv.CreatedAt
		doc.CreatedAt = &created
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
