// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/viewport"
)

// rowUnits is how many scroll units one terminal row counts for, so the
// follow threshold reads the same as on a pixel surface: the default of 40
// is two rows.
const rowUnits = 20

// viewportAdapter lets the scroll controller drive a bubbles viewport.
// It must only be used from the Bubble Tea update loop.
type viewportAdapter struct {
	vp *viewport.Model
}

// DistanceFromBottom implements scroll.Viewport.
func (a viewportAdapter) DistanceFromBottom() int {
	maxOffset := a.vp.TotalLineCount() - a.vp.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	d := maxOffset - a.vp.YOffset
	if d < 0 {
		d = 0
	}
	return d * rowUnits
}

// ScrollToBottom implements scroll.Viewport.
func (a viewportAdapter) ScrollToBottom() {
	a.vp.GotoBottom()
}
