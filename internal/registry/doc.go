// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry tracks the render state of every assistant message.
//
// Each message ID owns one slot holding the revealed prefix and two terminal
// flags, completed and stopped. Typing sessions post their progress to the
// registry, which applies it under a lock and discards anything arriving from
// a superseded session or after the slot was stopped. This is what keeps a
// stopped message frozen at the text the user last saw.
//
// Example:
//
//	reg := registry.New(registry.Options{})
//	reg.BeginTyping(msg.ID, msg.Content)
//	...
//	reg.Stop(msg.ID) // revealed text stays as it is
package registry

import "errors"

// ErrUnknownID is returned when no slot exists for a message ID.
var ErrUnknownID = errors.New("registry: unknown message id")
