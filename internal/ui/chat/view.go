// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigrun-reveal/internal/model"
	"github.com/jeranaias/rigrun-reveal/internal/panel"
	"github.com/jeranaias/rigrun-reveal/internal/ui/styles"
	"github.com/jeranaias/rigrun-reveal/internal/util"
)

// bodyIndent is the left margin of message bodies.
const bodyIndent = "  "

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes the viewport and renderer to the window.
func (m *Model) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	chrome := 2 // header + status line
	if m.showHelp {
		chrome += lipgloss.Height(m.help.FullHelpView(m.keys.FullHelp()))
	}
	height := m.height - chrome
	if height < 1 {
		height = 1
	}

	if m.renderer.Width() != m.width-len(bodyIndent) {
		m.renderer.SetWidth(m.width - len(bodyIndent))
		clear(m.rendered)
	}
	m.vp.Width = m.width
	m.vp.Height = height
	m.help.Width = m.width
	m.theme.SetSize(m.width, m.height)
}

// refresh redraws the message list into the viewport.
func (m *Model) refresh() {
	m.vp.SetContent(m.renderMessages())
}

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

func (m *Model) renderMessages() string {
	views := m.panel.Views()
	if len(views) == 0 {
		return m.theme.Timestamp.Render("No messages yet.")
	}

	lastAssistant := ""
	for i := len(views) - 1; i >= 0; i-- {
		if views[i].Role == model.RoleAssistant {
			lastAssistant = views[i].ID
			break
		}
	}

	blocks := make([]string, len(views))
	for i, v := range views {
		// The copy hint moves to the newest answer, so that one is redrawn.
		cacheable := !v.IsTyping && v.ID != lastAssistant
		if out, ok := m.rendered[v.ID]; ok && cacheable {
			blocks[i] = out
			continue
		}
		out := m.renderMessage(v, v.ID == lastAssistant)
		if cacheable {
			m.rendered[v.ID] = out
		}
		blocks[i] = out
	}
	return strings.Join(blocks, "\n\n")
}

// renderMessage draws one message: a header line, then the indented body.
func (m *Model) renderMessage(v panel.MessageView, newest bool) string {
	var label string
	switch v.Role {
	case model.RoleUser:
		label = m.theme.UserLabel.Render(v.Role.DisplayName())
	case model.RoleAssistant:
		label = m.theme.AssistantLabel.Render(v.Role.DisplayName())
	default:
		label = m.theme.SystemLabel.Render(v.Role.DisplayName())
	}

	header := []string{label}
	if !v.Timestamp.IsZero() {
		header = append(header, m.theme.Timestamp.Render(v.Timestamp.Format("15:04")))
	}
	if v.IsTyping {
		header = append(header, m.spinner.View())
	}
	if v.HasStopped {
		header = append(header, m.theme.StoppedBadge.Render(styles.BadgeStopped))
	}
	if newest && v.Role == model.RoleAssistant && v.CanCopy() {
		header = append(header, m.theme.CopyHint.Render("y to copy"))
	}

	out := strings.Join(header, " ")
	if len(v.Nodes) > 0 {
		out += "\n" + indent(m.renderer.Render(v.Nodes), bodyIndent)
	}
	return out
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	parts := []string{m.headerView(), m.vp.View(), m.statusView()}
	if m.showHelp {
		parts = append(parts, m.help.FullHelpView(m.keys.FullHelp()))
	}
	return strings.Join(parts, "\n")
}

func (m Model) headerView() string {
	title := m.theme.AssistantLabel.Render("reveal")
	if m.title != "" {
		title += " " + m.theme.Timestamp.Render(util.TruncateWidth(m.title, m.width-8))
	}
	return title
}

// statusView shows generation state, the follow indicator, errors and key
// hints on one line.
func (m Model) statusView() string {
	var left []string
	if m.panel.Generating() {
		left = append(left, m.spinner.View()+" typing")
	} else if m.status != "" {
		left = append(left, m.status)
	}

	st := m.panel.Scroll().State()
	switch {
	case st.Locked:
		left = append(left, m.theme.StatusLocked.Render(styles.BadgeLocked))
	case st.Following:
		left = append(left, m.theme.StatusFollowing.Render(styles.BadgeFollowing))
	}
	if m.lastErr != nil {
		left = append(left, m.theme.ErrorText.Render(util.TruncateWidth(m.lastErr.Error(), 60)))
	}

	l := strings.Join(left, " ")
	r := m.help.ShortHelpView(m.keys.ShortHelp())
	gap := m.width - lipgloss.Width(l) - lipgloss.Width(r)
	if gap < 1 {
		return l
	}
	return l + strings.Repeat(" ", gap) + r
}
