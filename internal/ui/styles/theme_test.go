// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestPlain_RendersWithoutEscapes(t *testing.T) {
	theme := Plain()
	assert.Equal(t, termenv.Ascii, theme.ColorProfile)

	for name, out := range map[string]string{
		"heading":  theme.Heading.Render("Title"),
		"strong":   theme.Strong.Render("bold"),
		"code":     theme.InlineCode.Render("x := 1"),
		"stopped":  theme.StoppedBadge.Render(BadgeStopped),
		"assist":   theme.AssistantLabel.Render("Assistant"),
		"shortcut": theme.ShortcutKey.Render("esc"),
	} {
		assert.NotContains(t, out, "\x1b[", name)
	}
	assert.Equal(t, "Title", theme.Heading.Render("Title"))
}

func TestNewThemeFor_ForcedModes(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, NewThemeFor(&buf, ModeDark).IsDark)
	assert.False(t, NewThemeFor(&buf, "LIGHT").IsDark)
}

func TestSetSize(t *testing.T) {
	theme := Plain()
	theme.SetSize(120, 40)
	assert.Equal(t, 120, theme.Width)
	assert.Equal(t, 40, theme.Height)
}

func TestValidMode(t *testing.T) {
	for _, m := range []string{"auto", "dark", "Light"} {
		assert.True(t, ValidMode(m), m)
	}
	assert.False(t, ValidMode("neon"))
	assert.False(t, ValidMode(""))
}
