// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigrun-reveal/internal/model"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refresh()
		if !m.ready {
			m.ready = true
			m.vp.GotoBottom()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		*m.vp, cmd = m.vp.Update(msg)
		m.panel.Scroll().OnUserScroll()
		return m, cmd

	case changeMsg:
		if d := m.panel.Registry().Dropped(); d > m.dropped {
			m.logger.Debug("changes dropped", "dropped", d, "since_last", d-m.dropped)
			m.dropped = d
		}
		m.refresh()
		m.panel.Tick()
		spin := m.startSpinner()
		return m, tea.Batch(listenChanges(m.panel.Changes()), spin)

	case changesClosedMsg:
		return m, nil

	case transcriptMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err
		} else if n, err := m.panel.Sync(msg.Messages); err != nil {
			m.lastErr = err
		} else if n > 0 {
			m.lastErr = nil
			m.logger.Debug("transcript synced", "new", n)
		}
		m.refresh()
		m.panel.Tick()
		spin := m.startSpinner()
		return m, tea.Batch(listenTranscript(m.transcript), spin)

	case appendMsg:
		for _, am := range msg.msgs {
			if err := m.panel.Append(am); err != nil {
				m.lastErr = err
				break
			}
		}
		m.refresh()
		m.panel.Tick()
		spin := m.startSpinner()
		return m, spin

	case copiedMsg:
		if msg.err != nil {
			m.lastErr = fmt.Errorf("copy: %w", msg.err)
			m.status = ""
		} else {
			m.status = "copied"
		}
		return m, nil

	case spinner.TickMsg:
		if !m.panel.Generating() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	return m, nil
}

// handleKey dispatches a key press.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Stop):
		if m.panel.Stop() {
			m.status = "stopped"
			m.refresh()
			return m, nil
		}
		// Ctrl+C with nothing to stop quits.
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		text, ok := m.copyable()
		if !ok {
			m.status = "nothing to copy"
			return m, nil
		}
		return m, copyCmd(m.copyFn, text)

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.vp.LineUp(1)
	case key.Matches(msg, m.keys.Down):
		m.vp.LineDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.vp.ViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.vp.ViewDown()
	case key.Matches(msg, m.keys.Home):
		m.vp.GotoTop()
	case key.Matches(msg, m.keys.End):
		m.vp.GotoBottom()
	default:
		return m, nil
	}

	m.panel.Scroll().OnUserScroll()
	return m, nil
}

// copyable returns the content of the newest assistant answer that has
// finished typing.
func (m Model) copyable() (string, bool) {
	views := m.panel.Views()
	for i := len(views) - 1; i >= 0; i-- {
		v := views[i]
		if v.Role != model.RoleAssistant {
			continue
		}
		if !v.CanCopy() {
			return "", false
		}
		msg, ok := m.panel.Conversation().Find(v.ID)
		if !ok {
			return "", false
		}
		return msg.Content, true
	}
	return "", false
}

// startSpinner starts the typing indicator if a message is being typed.
func (m *Model) startSpinner() tea.Cmd {
	if m.spinning || !m.panel.Generating() {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}
