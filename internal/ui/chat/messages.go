// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigrun-reveal/internal/model"
	"github.com/jeranaias/rigrun-reveal/internal/registry"
	"github.com/jeranaias/rigrun-reveal/internal/transcript"
)

// =============================================================================
// MESSAGES
// =============================================================================

// changeMsg reports that a message's render state moved; it carries the
// newest of any changes that were queued together.
type changeMsg registry.Change

// changesClosedMsg reports that the registry shut down.
type changesClosedMsg struct{}

// transcriptMsg carries one reload of the watched transcript.
type transcriptMsg transcript.Update

// appendMsg appends new messages to the panel.
type appendMsg struct {
	msgs []*model.Message
}

// copiedMsg reports the outcome of a clipboard write.
type copiedMsg struct {
	err error
}

// =============================================================================
// COMMANDS
// =============================================================================

// listenChanges waits for the next render-state change. Changes already
// queued behind it are folded in, since one redraw covers them all.
func listenChanges(ch <-chan registry.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return changesClosedMsg{}
		}
		for {
			select {
			case next, ok := <-ch:
				if !ok {
					return changeMsg(c)
				}
				c = next
			default:
				return changeMsg(c)
			}
		}
	}
}

// listenTranscript waits for the next transcript reload.
func listenTranscript(ch <-chan transcript.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return transcriptMsg(u)
	}
}

// copyCmd writes text to the clipboard off the update loop.
func copyCmd(copyFn func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: copyFn(text)}
	}
}
