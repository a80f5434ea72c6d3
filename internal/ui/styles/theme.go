// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme modes accepted by NewTheme.
const (
	ModeAuto  = "auto"
	ModeDark  = "dark"
	ModeLight = "light"
)

// Theme holds every style the UI draws with.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	Renderer *lipgloss.Renderer

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// MESSAGE HEADER STYLES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemLabel    lipgloss.Style
	Timestamp      lipgloss.Style
	StoppedBadge   lipgloss.Style
	CopyHint       lipgloss.Style

	// ==========================================================================
	// CONTENT STYLES
	// ==========================================================================

	Paragraph  lipgloss.Style
	Heading    lipgloss.Style
	SubHeading lipgloss.Style
	ListMarker lipgloss.Style
	Rule       lipgloss.Style
	Strong     lipgloss.Style
	InlineCode lipgloss.Style

	// ==========================================================================
	// CODE BLOCK STYLES
	// ==========================================================================

	CodeBlock     lipgloss.Style
	CodeLangBadge lipgloss.Style
	CodeLineNum   lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar       lipgloss.Style
	StatusFollowing lipgloss.Style
	StatusLocked    lipgloss.Style
	Spinner         lipgloss.Style
	ShortcutKey     lipgloss.Style
	ShortcutDesc    lipgloss.Style
	ErrorText       lipgloss.Style
}

// NewTheme creates a theme for stdout. mode is auto, dark or light; auto
// asks the terminal for its background.
func NewTheme(mode string) *Theme {
	return NewThemeFor(os.Stdout, mode)
}

// NewThemeFor creates a theme for output w.
func NewThemeFor(w io.Writer, mode string) *Theme {
	r := lipgloss.NewRenderer(w)
	switch strings.ToLower(mode) {
	case ModeDark:
		r.SetHasDarkBackground(true)
	case ModeLight:
		r.SetHasDarkBackground(false)
	}
	return newTheme(r)
}

// Plain returns a theme that renders text without any escape sequences.
func Plain() *Theme {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	r.SetHasDarkBackground(true)
	return newTheme(r)
}

func newTheme(r *lipgloss.Renderer) *Theme {
	t := &Theme{
		IsDark:       r.HasDarkBackground(),
		ColorProfile: r.ColorProfile(),
		Renderer:     r,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	s := t.Renderer.NewStyle

	// Message headers
	t.UserLabel = s().Bold(true).Foreground(Cyan)
	t.AssistantLabel = s().Bold(true).Foreground(Purple)
	t.SystemLabel = s().Bold(true).Foreground(Amber)
	t.Timestamp = s().Foreground(TextMuted)
	t.StoppedBadge = s().Bold(true).Foreground(Rose)
	t.CopyHint = s().Foreground(TextMuted).Italic(true)

	// Content
	t.Paragraph = s().Foreground(TextPrimary)
	t.Heading = s().Bold(true).Underline(true).Foreground(Purple)
	t.SubHeading = s().Bold(true).Foreground(Purple)
	t.ListMarker = s().Foreground(Cyan)
	t.Rule = s().Foreground(OverlayDim)
	t.Strong = s().Bold(true)
	t.InlineCode = s().Foreground(Cyan).Background(SurfaceDim)

	// Code blocks
	t.CodeBlock = s().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.CodeLangBadge = s().
		Foreground(TextInverse).
		Background(Purple).
		Padding(0, 1).
		Bold(true)
	t.CodeLineNum = s().
		Foreground(TextMuted).
		Width(4).
		Align(lipgloss.Right).
		MarginRight(1)

	// Status bar
	t.StatusBar = s().Foreground(TextSecondary).Background(SurfaceDim)
	t.StatusFollowing = s().Foreground(Emerald)
	t.StatusLocked = s().Bold(true).Foreground(Amber)
	t.Spinner = s().Foreground(Purple)
	t.ShortcutKey = s().Bold(true).Foreground(Cyan)
	t.ShortcutDesc = s().Foreground(TextMuted)
	t.ErrorText = s().Bold(true).Foreground(Rose)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// ValidMode reports whether mode is a theme mode NewTheme understands.
func ValidMode(mode string) bool {
	switch strings.ToLower(mode) {
	case ModeAuto, ModeDark, ModeLight:
		return true
	}
	return false
}
