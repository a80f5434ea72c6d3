// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxMessages is the maximum number of messages to keep in conversation history.
// When exceeded, old messages are pruned to prevent unbounded memory growth.
const MaxMessages = 1000

var (
	// ErrUnknownRole is returned when a message carries a role outside user/assistant/system.
	ErrUnknownRole = errors.New("unknown message role")
	// ErrDuplicateID is returned when a message with an existing ID is added.
	ErrDuplicateID = errors.New("duplicate message id")
	// ErrNilMessage is returned when a nil message is added.
	ErrNilMessage = errors.New("nil message")
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the ordered message list owned by the panel. Messages are only
// ever appended; positions are informational and never used as keys.
type Conversation struct {
	mu sync.RWMutex

	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time

	messages []*Message
	byID     map[string]int
}

// NewConversation creates a new conversation with a generated ID.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        "conv_" + uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		byID:      make(map[string]int),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Add appends a message to the conversation.
func (c *Conversation) Add(msg *Message) error {
	if msg == nil {
		return ErrNilMessage
	}
	if !msg.Role.Valid() {
		return ErrUnknownRole
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.ID == "" {
		msg.ID = NewID()
	}
	if _, ok := c.byID[msg.ID]; ok {
		return ErrDuplicateID
	}

	c.messages = append(c.messages, msg)
	c.byID[msg.ID] = len(c.messages) - 1
	c.UpdatedAt = time.Now()
	c.updateTitleLocked()
	c.pruneLocked()
	return nil
}

// Messages returns a snapshot of the message list.
func (c *Conversation) Messages() []*Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Visible returns the messages shown in the panel (system messages are hidden).
func (c *Conversation) Visible() []*Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Message, 0, len(c.messages))
	for _, m := range c.messages {
		if m.Role != RoleSystem {
			out = append(out, m)
		}
	}
	return out
}

// Last returns the most recent message, or nil if empty.
func (c *Conversation) Last() *Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.messages) == 0 {
		return nil
	}
	return c.messages[len(c.messages)-1]
}

// LastAssistant returns the most recent assistant message, or nil.
func (c *Conversation) LastAssistant() *Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleAssistant {
			return c.messages[i]
		}
	}
	return nil
}

// Find returns the message with the given ID.
func (c *Conversation) Find(id string) (*Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return c.messages[i], true
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// IsEmpty returns true if the conversation has no messages.
func (c *Conversation) IsEmpty() bool {
	return c.Len() == 0
}

// GetTitle returns the title, deriving one from the first user message if unset.
func (c *Conversation) GetTitle() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Title == "" {
		return "New conversation"
	}
	return c.Title
}

// updateTitleLocked derives the title from the first user message.
func (c *Conversation) updateTitleLocked() {
	if c.Title != "" {
		return
	}
	for _, m := range c.messages {
		if m.Role == RoleUser && m.Content != "" {
			title := strings.ReplaceAll(m.Content, "\n", " ")
			c.Title = (&Message{Content: title}).Preview(50)
			return
		}
	}
}

// pruneLocked drops the oldest messages past MaxMessages and rebuilds the index.
func (c *Conversation) pruneLocked() {
	if len(c.messages) <= MaxMessages {
		return
	}
	excess := len(c.messages) - MaxMessages
	c.messages = append([]*Message(nil), c.messages[excess:]...)
	c.byID = make(map[string]int, len(c.messages))
	for i, m := range c.messages {
		c.byID[m.ID] = i
	}
}
