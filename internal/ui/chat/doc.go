// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the Bubble Tea front end of the message panel.
//
// The model draws every visible message into a bubbles viewport and redraws
// whenever the registry reports a reveal step. After each redraw the panel's
// scroll controller decides whether to follow the bottom; the controller
// drives the same viewport through an adapter, so all scrolling happens on
// the update loop.
//
// # Keys
//
//   - Esc / Ctrl+C: stop the answer being typed (Ctrl+C quits when idle)
//   - Up/Down, PgUp/PgDn, Home/End, mouse wheel: scroll; scrolling away
//     during typing locks following until the answer ends
//   - y: copy the newest finished answer
//   - ?: toggle help, q: quit
//
// # Usage
//
//	p := panel.New(panel.Options{...})
//	m := chat.New(p, chat.Options{Renderer: r, Transcript: w.Updates()})
//	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
package chat
