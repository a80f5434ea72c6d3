// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-reveal/internal/model"
	"github.com/jeranaias/rigrun-reveal/internal/panel"
	"github.com/jeranaias/rigrun-reveal/internal/registry"
	"github.com/jeranaias/rigrun-reveal/internal/transcript"
	"github.com/jeranaias/rigrun-reveal/internal/typing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type instantPacer struct{}

func (instantPacer) Wait(ctx context.Context) error { return ctx.Err() }

func instant(time.Duration) typing.Pacer { return instantPacer{} }

type blockedPacer struct{}

func (blockedPacer) Wait(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func blocked(time.Duration) typing.Pacer { return blockedPacer{} }

type testClipboard struct {
	text string
	err  error
}

func (c *testClipboard) write(s string) error {
	c.text = s
	return c.err
}

func newTestModel(t *testing.T, pacer typing.PacerFactory, opts Options) (Model, *panel.Panel) {
	t.Helper()
	p := panel.New(panel.Options{
		Registry: registry.Options{Typing: typing.Options{Pacer: pacer}},
	})
	t.Cleanup(p.Close)
	m := New(p, opts)
	m = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	return m, p
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func sendCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func longHistory(n int) []*model.Message {
	msgs := make([]*model.Message, 0, n)
	for i := 0; i < n; i++ {
		msgs = append(msgs, model.NewUserMessage("line of history"))
	}
	return msgs
}

// =============================================================================
// RENDERING TESTS
// =============================================================================

func TestView_BeforeSize(t *testing.T) {
	p := panel.New(panel.Options{})
	defer p.Close()
	assert.Equal(t, "Loading...", New(p, Options{}).View())
}

func TestView_History(t *testing.T) {
	m, p := newTestModel(t, blocked, Options{Title: "demo"})
	require.NoError(t, p.LoadHistory([]*model.Message{
		model.NewUserMessage("What is Go?"),
		model.NewAssistantMessage("A **language**.\n\n```go\npackage main\n```"),
	}))
	m = send(t, m, changeMsg{})

	out := m.View()
	assert.Contains(t, out, "reveal demo")
	assert.Contains(t, out, "You")
	assert.Contains(t, out, "What is Go?")
	assert.Contains(t, out, "A language.")
	assert.Contains(t, out, "package main")
	assert.Contains(t, out, "y to copy")
	assert.NotContains(t, out, "```")
	assert.NotContains(t, out, "**")
}

func TestView_Empty(t *testing.T) {
	m, _ := newTestModel(t, blocked, Options{})
	assert.Contains(t, m.View(), "No messages yet.")
}

func TestAppend_TypesAndCompletes(t *testing.T) {
	answer := model.NewAssistantMessage("Typed out answer")
	m, p := newTestModel(t, instant, Options{})

	m = send(t, m, appendMsg{msgs: []*model.Message{answer}})
	require.Eventually(t, func() bool { return !p.Generating() }, 2*time.Second, time.Millisecond)

	m = send(t, m, changeMsg{})
	assert.Contains(t, m.View(), "Typed out answer")
	assert.Contains(t, m.View(), "y to copy")
}

func TestAppend_TypingHidesCopyHint(t *testing.T) {
	m, _ := newTestModel(t, blocked, Options{})
	m, cmd := sendCmd(t, m, appendMsg{msgs: []*model.Message{model.NewAssistantMessage("never shown")}})
	assert.NotNil(t, cmd, "spinner starts")

	out := m.View()
	assert.Contains(t, out, "typing")
	assert.NotContains(t, out, "never shown")
	assert.NotContains(t, out, "y to copy")
}

func TestTranscript_SyncsAndReportsErrors(t *testing.T) {
	m, p := newTestModel(t, blocked, Options{})

	m = send(t, m, transcriptMsg(transcript.Update{Messages: []*model.Message{model.NewUserMessage("from file")}}))
	assert.Equal(t, 1, p.Conversation().Len())
	assert.Contains(t, m.View(), "from file")

	m = send(t, m, transcriptMsg(transcript.Update{Err: errors.New("bad json")}))
	assert.Contains(t, m.View(), "bad json")
}

func TestChange_LogsDroppedNotifications(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p := panel.New(panel.Options{
		Registry: registry.Options{UpdateBuffer: 1},
	})
	t.Cleanup(p.Close)
	require.NoError(t, p.LoadHistory([]*model.Message{
		model.NewAssistantMessage("a"),
		model.NewAssistantMessage("b"),
		model.NewAssistantMessage("c"),
	}))
	require.Equal(t, uint64(2), p.Registry().Dropped())

	m := New(p, Options{Logger: logger})
	m = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = send(t, m, changeMsg{})
	assert.Contains(t, logs.String(), "changes dropped")
	assert.Contains(t, logs.String(), "dropped=2")

	// Nothing new dropped: no second entry.
	send(t, m, changeMsg{})
	assert.Equal(t, 1, strings.Count(logs.String(), "changes dropped"))
}

// =============================================================================
// KEY TESTS
// =============================================================================

func TestStopKey_FreezesAnswer(t *testing.T) {
	m, p := newTestModel(t, blocked, Options{})
	msg := model.NewAssistantMessage("Hello world")
	m = send(t, m, appendMsg{msgs: []*model.Message{msg}})
	require.True(t, p.Generating())

	m, cmd := sendCmd(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.False(t, p.Generating())

	v, _ := p.View(msg.ID)
	assert.True(t, v.HasStopped)
	assert.Contains(t, m.View(), "[stopped]")
}

func TestCtrlC_StopsThenQuits(t *testing.T) {
	m, _ := newTestModel(t, blocked, Options{})
	m = send(t, m, appendMsg{msgs: []*model.Message{model.NewAssistantMessage("x")}})

	m, cmd := sendCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Nil(t, cmd, "first ctrl+c only stops")

	_, cmd = sendCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestQuitKey(t *testing.T) {
	m, _ := newTestModel(t, blocked, Options{})
	_, cmd := sendCmd(t, m, keyRune('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestCopyKey(t *testing.T) {
	cb := &testClipboard{}
	m, p := newTestModel(t, blocked, Options{Copy: cb.write})
	answer := model.NewAssistantMessage("copy **me**")
	require.NoError(t, p.LoadHistory([]*model.Message{model.NewUserMessage("q"), answer}))

	m, cmd := sendCmd(t, m, keyRune('y'))
	require.NotNil(t, cmd)
	m = send(t, m, cmd())
	assert.Equal(t, "copy **me**", cb.text)
	assert.Contains(t, m.View(), "copied")
}

func TestCopyKey_NotWhileTyping(t *testing.T) {
	cb := &testClipboard{}
	m, _ := newTestModel(t, blocked, Options{Copy: cb.write})
	m = send(t, m, appendMsg{msgs: []*model.Message{model.NewAssistantMessage("busy")}})

	_, cmd := sendCmd(t, m, keyRune('y'))
	assert.Nil(t, cmd)
	assert.Empty(t, cb.text)
}

func TestCopyKey_Error(t *testing.T) {
	cb := &testClipboard{err: errors.New("no clipboard")}
	m, p := newTestModel(t, blocked, Options{Copy: cb.write})
	require.NoError(t, p.LoadHistory([]*model.Message{model.NewAssistantMessage("a")}))

	m, cmd := sendCmd(t, m, keyRune('y'))
	m = send(t, m, cmd())
	assert.Contains(t, m.View(), "no clipboard")
}

func TestHelpKey_TogglesFullHelp(t *testing.T) {
	m, _ := newTestModel(t, blocked, Options{})
	height := m.vp.Height

	m = send(t, m, keyRune('?'))
	assert.Contains(t, m.View(), "go to top")
	assert.Less(t, m.vp.Height, height)

	m = send(t, m, keyRune('?'))
	assert.Equal(t, height, m.vp.Height)
}

// =============================================================================
// SCROLL TESTS
// =============================================================================

func TestScrollUp_LocksFollowingDuringTyping(t *testing.T) {
	m, p := newTestModel(t, blocked, Options{})
	require.NoError(t, p.LoadHistory(longHistory(60)))
	m = send(t, m, changeMsg{})
	m = send(t, m, appendMsg{msgs: []*model.Message{model.NewAssistantMessage("answer")}})
	require.True(t, m.vp.AtBottom())
	assert.Contains(t, m.View(), "[following]")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	m = send(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	st := p.Scroll().State()
	assert.True(t, st.Locked)
	assert.False(t, st.Following)
	assert.Contains(t, m.View(), "[locked]")

	// A reveal step no longer pulls the view down.
	offset := m.vp.YOffset
	m = send(t, m, changeMsg{})
	assert.Equal(t, offset, m.vp.YOffset)
}

func TestViewportAdapter_Distance(t *testing.T) {
	vp := viewport.New(10, 5)
	vp.SetContent(strings.Repeat("x\n", 19) + "x")
	a := viewportAdapter{vp: &vp}

	assert.Equal(t, 15*rowUnits, a.DistanceFromBottom())
	a.ScrollToBottom()
	assert.Equal(t, 0, a.DistanceFromBottom())

	short := viewport.New(10, 5)
	short.SetContent("one line")
	assert.Equal(t, 0, viewportAdapter{vp: &short}.DistanceFromBottom())
}
