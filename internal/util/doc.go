// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared across reveal.
//
//   - AtomicWriteFile: crash-safe file writes (temp file, fsync, rename)
//   - TruncateRunes, TruncateWidth: UTF-8 and column aware truncation
//   - StringWidth, PadRight: terminal column arithmetic
//
// Usage:
//
//	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
//	    return err
//	}
//	title := util.TruncateWidth(msg.Content, 40)
package util
