// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage keeps conversation history in a SQLite database.
//
// History is what the panel loads when it starts: every stored message is
// shown complete, without the typing effect.
//
// # Key Types
//
//   - Store: handle on the history database
//   - Conversation: a stored conversation with its messages
//   - Meta: lightweight metadata for listing
//
// # Usage
//
//	store, err := storage.Open(cfg.Storage.DBPath)
//	defer store.Close()
//
//	id, err := store.Save(ctx, conv)
//	metas, err := store.List(ctx)
//	conv, err := store.Load(ctx, metas[0].ID)
//
// # Storage Location
//
// The database lives at ~/.reveal/history.db unless storage.db_path says
// otherwise.
package storage
