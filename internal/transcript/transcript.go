// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript reads chat transcripts from JSON files and watches them
// for new messages.
//
// A transcript is either a JSON array of messages or an object with a
// "messages" array:
//
//	[{"id": "a1", "role": "user", "content": "hi", "timestamp": 1700000000000}]
//
// Messages without an id get one derived from their position, role and
// content, so reloading an unchanged file yields the same IDs.
package transcript

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/jeranaias/rigrun-reveal/internal/model"
)

// ErrFormat is returned for files that are neither a message array nor an
// object with a messages array.
var ErrFormat = errors.New("transcript: unrecognized format")

// idNamespace seeds derived message IDs.
var idNamespace = uuid.MustParse("6f1c9a52-3a6e-4b8e-9d0c-52c1a7e0b3d4")

// document is the object form of a transcript.
type document struct {
	Messages []json.RawMessage `json:"messages"`
}

// probe reads only the id of a raw message.
type probe struct {
	ID string `json:"id"`
}

// Load reads and parses the transcript at path.
func Load(path string) ([]*model.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	msgs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", path, err)
	}
	return msgs, nil
}

// Parse decodes a transcript. An empty document is an empty transcript.
func Parse(data []byte) ([]*model.Message, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var raws []json.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, err
		}
	case '{':
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		raws = doc.Messages
	default:
		return nil, ErrFormat
	}

	msgs := make([]*model.Message, 0, len(raws))
	for i, raw := range raws {
		var p probe
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		var msg model.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		if p.ID == "" {
			msg.ID = DeriveID(i, msg.Role, msg.Content)
		}
		msgs = append(msgs, &msg)
	}
	return msgs, nil
}

// DeriveID returns the stable ID of an unnamed message at position index.
func DeriveID(index int, role model.Role, content string) string {
	name := strconv.Itoa(index) + "\x00" + string(role) + "\x00" + content
	return "msg_" + uuid.NewSHA1(idNamespace, []byte(name)).String()
}
