// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigrun-reveal/internal/model"
	"github.com/jeranaias/rigrun-reveal/internal/panel"
	"github.com/jeranaias/rigrun-reveal/internal/transcript"
	"github.com/jeranaias/rigrun-reveal/internal/ui/render"
	"github.com/jeranaias/rigrun-reveal/internal/ui/styles"
)

// Options configures the chat Model.
type Options struct {
	// Renderer draws message bodies. Nil selects a plain renderer.
	Renderer *render.Renderer

	// Transcript delivers reloads of a watched transcript file.
	Transcript <-chan transcript.Update

	// Pending messages are appended once the program starts.
	Pending []*model.Message

	// Title is shown in the header.
	Title string

	// Copy writes text to the clipboard. Nil selects the system clipboard.
	Copy func(string) error

	Logger *slog.Logger
}

// Model is the Bubble Tea model of the message view.
type Model struct {
	panel    *panel.Panel
	renderer *render.Renderer
	theme    *styles.Theme

	// UI Components
	vp      *viewport.Model // shared with the scroll controller
	spinner spinner.Model
	help    help.Model
	keys    KeyMap

	transcript <-chan transcript.Update
	pending    []*model.Message

	// rendered caches messages that can no longer change, by ID.
	rendered map[string]string

	copyFn func(string) error
	logger *slog.Logger
	title  string

	// dropped is the registry drop count last logged.
	dropped uint64

	// Layout
	width  int
	height int
	ready  bool

	spinning bool
	showHelp bool
	status   string
	lastErr  error
}

// New creates the message view for p and attaches its viewport to p's
// scroll controller.
func New(p *panel.Panel, opts Options) Model {
	r := opts.Renderer
	if r == nil {
		r = render.New(styles.Plain(), render.Options{})
	}
	copyFn := opts.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	vp := viewport.New(80, 20)
	vp.SetContent("")
	p.Scroll().Attach(viewportAdapter{vp: &vp})

	// ASCII frames render everywhere.
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = r.Theme().Spinner

	h := help.New()
	h.Styles.ShortKey = r.Theme().ShortcutKey
	h.Styles.ShortDesc = r.Theme().ShortcutDesc
	h.Styles.FullKey = r.Theme().ShortcutKey
	h.Styles.FullDesc = r.Theme().ShortcutDesc

	return Model{
		panel:      p,
		renderer:   r,
		theme:      r.Theme(),
		vp:         &vp,
		spinner:    sp,
		help:       h,
		keys:       DefaultKeyMap(),
		transcript: opts.Transcript,
		pending:    opts.Pending,
		rendered:   make(map[string]string),
		copyFn:     copyFn,
		logger:     logger,
		title:      opts.Title,
	}
}

// Panel returns the orchestrator the view draws.
func (m Model) Panel() *panel.Panel { return m.panel }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{listenChanges(m.panel.Changes())}
	if m.transcript != nil {
		cmds = append(cmds, listenTranscript(m.transcript))
	}
	if len(m.pending) > 0 {
		msgs := m.pending
		cmds = append(cmds, func() tea.Msg { return appendMsg{msgs: msgs} })
	}
	return tea.Batch(cmds...)
}
