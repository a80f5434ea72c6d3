// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: ordered, append-only message list owned by the panel
//   - Message: single message with a stable ID, role, content and timestamp
//   - Role: message role enumeration (user, assistant, system)
//
// Every message gets a UUID-based ID when it is created or decoded. Render
// state is keyed by that ID, never by list position.
//
// # Usage
//
//	conv := model.NewConversation()
//	_ = conv.Add(model.NewUserMessage("Hello!"))
//	reply := model.NewAssistantMessage("Hi. How can I help?")
//	_ = conv.Add(reply)
package model
