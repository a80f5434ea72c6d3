// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles holds the palette and lipgloss styles of the terminal UI.
//
// A Theme binds every style to one lipgloss.Renderer. The renderer decides
// the color profile (termenv detection, or forced for tests and pipes) and
// whether the light or dark side of each AdaptiveColor applies.
//
//	theme := styles.NewTheme(cfg.Render.Theme)
//	fmt.Println(theme.Heading.Render("Title"))
//
// Plain returns a theme that renders no escape sequences, for tests and
// non-terminal output.
package styles
