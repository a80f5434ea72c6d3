// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates reveal's configuration.
//
// Supports both TOML and JSON configuration formats, with defaults,
// environment variable overrides, and validation.
//
// # Sections
//
//   - typing: wpm, chunk_size
//   - scroll: threshold
//   - render: highlight_style, width, line_numbers, theme
//   - storage: db_path
//   - log: file, level
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (REVEAL_*)
//   - ~/.reveal/config.toml
//   - ~/.reveal/config.json
//   - Built-in defaults
//
// REVEAL_HOME moves the ~/.reveal directory.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	delay := typing.Delay(cfg.Typing.WPM, cfg.Typing.ChunkSize)
package config
