// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scroll decides when the message view follows new content.
//
// While an answer is being typed the view sticks to the bottom until the user
// scrolls away. Scrolling away locks following off for the rest of that
// answer, so briefly passing the bottom again does not yank the view back
// down. Outside generation following simply tracks whether the view sits at
// the bottom.
package scroll

import (
	"log/slog"
	"sync"
)

// DefaultThreshold is the distance from the bottom still treated as "at the
// bottom", in the viewport's units.
const DefaultThreshold = 40

// Viewport is the scrollable surface the controller drives.
type Viewport interface {
	// DistanceFromBottom returns how far the view is above its maximum offset.
	DistanceFromBottom() int
	// ScrollToBottom moves the view to its maximum offset.
	ScrollToBottom()
}

// =============================================================================
// STATE
// =============================================================================

// State is a snapshot of the controller.
type State struct {
	Following  bool
	Locked     bool
	Generating bool
}

// String returns a short label for status lines.
func (s State) String() string {
	label := "not following"
	if s.Following {
		label = "following"
	}
	if s.Locked {
		label += " (locked)"
	}
	return label
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is the auto-follow state machine. It is safe for concurrent use.
type Controller struct {
	mu         sync.Mutex
	vp         Viewport
	threshold  int
	generating bool
	autoFollow bool
	locked     bool
	logger     *slog.Logger
}

// New creates a Controller for vp. A non-positive threshold selects
// DefaultThreshold; vp may be nil and attached later.
func New(vp Viewport, threshold int, logger *slog.Logger) *Controller {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		vp:         vp,
		threshold:  threshold,
		autoFollow: true,
		logger:     logger,
	}
}

// Attach sets the viewport.
func (c *Controller) Attach(vp Viewport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vp = vp
}

// Threshold returns the at-bottom tolerance.
func (c *Controller) Threshold() int { return c.threshold }

// SetGenerating records a generation start or end. Starting forces following
// on, clears the lock and scrolls to the bottom once. Ending clears the lock
// and keeps the follow flag as it was.
func (c *Controller) SetGenerating(generating bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generating == c.generating {
		return
	}
	c.generating = generating
	c.locked = false
	if generating {
		c.autoFollow = true
		c.scrollLocked()
	}
	c.logger.Debug("scroll generation", "generating", generating, "following", c.autoFollow)
}

// OnTick is called after each reveal tick and reports whether it scrolled.
//
// While generating and unlocked, a following view, or one within the
// threshold of the bottom, is scrolled to the bottom. A view that is neither
// stops following and locks. Outside generation the follow flag tracks the
// bottom and nothing scrolls.
func (c *Controller) OnTick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	near := c.nearBottomLocked()
	if !c.generating {
		c.autoFollow = near
		return false
	}
	if c.locked {
		return false
	}
	if c.autoFollow || near {
		c.autoFollow = true
		c.scrollLocked()
		return true
	}
	c.autoFollow = false
	c.locked = true
	return false
}

// OnUserScroll is called after the user moves the view. During generation,
// leaving the bottom stops following and locks; outside generation the
// follow flag tracks the bottom.
func (c *Controller) OnUserScroll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	near := c.nearBottomLocked()
	if !c.generating {
		c.autoFollow = near
		return
	}
	if !near {
		if !c.locked {
			c.logger.Debug("scroll locked by user")
		}
		c.autoFollow = false
		c.locked = true
	}
}

// State returns a snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Following: c.autoFollow, Locked: c.locked, Generating: c.generating}
}

// Following reports whether the view follows new content.
func (c *Controller) Following() bool { return c.State().Following }

// Locked reports whether following is locked off for the current generation.
func (c *Controller) Locked() bool { return c.State().Locked }

func (c *Controller) nearBottomLocked() bool {
	if c.vp == nil {
		return true
	}
	return c.vp.DistanceFromBottom() <= c.threshold
}

func (c *Controller) scrollLocked() {
	if c.vp != nil {
		c.vp.ScrollToBottom()
	}
}
