// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package panel wires a conversation to typing, formatting and scrolling.
//
// The panel owns the ordered message list, the render-state registry, the
// scroll controller and the token of the active generation. Only the newest
// assistant message is ever typed; a message that arrives while another is
// still typing completes the older one at once.
package panel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jeranaias/rigrun-reveal/internal/format"
	"github.com/jeranaias/rigrun-reveal/internal/model"
	"github.com/jeranaias/rigrun-reveal/internal/registry"
	"github.com/jeranaias/rigrun-reveal/internal/scroll"
)

// MessageView is what a presentation layer needs to draw one message.
type MessageView struct {
	ID         string
	Role       model.Role
	Timestamp  time.Time
	Nodes      []format.Node
	IsTyping   bool
	HasStopped bool
}

// CanCopy reports whether a copy action should be offered.
func (v MessageView) CanCopy() bool {
	return !v.IsTyping && len(v.Nodes) > 0
}

// Options configures a Panel.
type Options struct {
	Registry        registry.Options
	ScrollThreshold int
	Viewport        scroll.Viewport
	Formatter       *format.Formatter
	Logger          *slog.Logger
}

// Panel is the orchestrator. It is safe for concurrent use.
type Panel struct {
	conv      *model.Conversation
	reg       *registry.Registry
	scroll    *scroll.Controller
	formatter *format.Formatter
	cancelMgr *cancelManager
	logger    *slog.Logger
}

// New creates an empty Panel.
func New(opts Options) *Panel {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Registry.Logger == nil {
		opts.Registry.Logger = logger
	}
	f := opts.Formatter
	if f == nil {
		f = format.NewFormatter(format.DefaultCacheSize)
	}
	return &Panel{
		conv:      model.NewConversation(),
		reg:       registry.New(opts.Registry),
		scroll:    scroll.New(opts.Viewport, opts.ScrollThreshold, logger),
		formatter: f,
		cancelMgr: newCancelManager(),
		logger:    logger,
	}
}

// Conversation returns the message list.
func (p *Panel) Conversation() *model.Conversation { return p.conv }

// Registry returns the render-state registry.
func (p *Panel) Registry() *registry.Registry { return p.reg }

// Scroll returns the scroll controller.
func (p *Panel) Scroll() *scroll.Controller { return p.scroll }

// Changes returns the registry change stream.
func (p *Panel) Changes() <-chan registry.Change { return p.reg.Updates() }

// =============================================================================
// MESSAGE ARRIVAL
// =============================================================================

// LoadHistory adds existing messages without replaying the typing effect.
func (p *Panel) LoadHistory(msgs []*model.Message) error {
	added := make([]*model.Message, 0, len(msgs))
	for _, msg := range msgs {
		if err := p.conv.Add(msg); err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		added = append(added, msg)
	}
	p.reg.MarkHistory(added)
	p.retain()
	p.logger.Debug("history loaded", "messages", len(added))
	return nil
}

// Append adds a new message. An assistant message starts typing.
func (p *Panel) Append(msg *model.Message) error {
	if err := p.conv.Add(msg); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	if msg.Role == model.RoleAssistant {
		p.beginTyping(msg)
	}
	p.retain()
	return nil
}

// Sync appends the messages of msgs the panel has not seen yet, in order.
// Only the last new assistant message is typed; earlier new ones are shown
// complete. It returns the number of messages added.
func (p *Panel) Sync(msgs []*model.Message) (int, error) {
	var fresh []*model.Message
	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		if _, ok := p.conv.Find(msg.ID); !ok {
			fresh = append(fresh, msg)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	last := -1
	for i, msg := range fresh {
		if msg.Role == model.RoleAssistant {
			last = i
		}
	}
	if last < 0 {
		return len(fresh), p.LoadHistory(fresh)
	}
	if err := p.LoadHistory(fresh[:last]); err != nil {
		return 0, err
	}
	for _, msg := range fresh[last:] {
		if err := p.Append(msg); err != nil {
			return 0, err
		}
	}
	return len(fresh), nil
}

func (p *Panel) beginTyping(msg *model.Message) {
	// Finish whatever was still typing; only the newest message types.
	if prev := p.cancelMgr.cancel(); prev != "" {
		if m, ok := p.conv.Find(prev); ok {
			p.reg.MarkHistory([]*model.Message{m})
		}
	}

	ctx := p.cancelMgr.begin(context.Background(), msg.ID)
	p.scroll.SetGenerating(true)
	p.reg.BeginTyping(msg.ID, msg.Content)
	p.logger.Debug("generation started", "id", msg.ID)

	go p.watch(ctx, msg.ID)
}

// watch ends the generation once the slot for id is terminal. A cancelled
// token means Stop or a newer message already ended it.
func (p *Panel) watch(ctx context.Context, id string) {
	if _, err := p.reg.Wait(ctx, id); err != nil {
		return
	}
	if p.cancelMgr.release(id) {
		p.scroll.SetGenerating(false)
		p.logger.Debug("generation finished", "id", id)
	}
}

// retain drops render state of messages pruned from the conversation.
func (p *Panel) retain() {
	if p.reg.Len() <= p.conv.Len() {
		return
	}
	msgs := p.conv.Messages()
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	p.reg.Retain(ids)
}

// =============================================================================
// CONTROL
// =============================================================================

// Stop freezes the message being typed where it is. It reports whether
// anything was stopped.
func (p *Panel) Stop() bool {
	id := p.cancelMgr.cancel()
	if id == "" {
		return false
	}
	stopped := p.reg.Stop(id)
	p.scroll.SetGenerating(false)
	p.logger.Debug("generation stopped", "id", id, "stopped", stopped)
	return stopped
}

// Generating reports whether a message is being typed.
func (p *Panel) Generating() bool {
	id := p.cancelMgr.active()
	return id != "" && p.reg.IsTyping(id)
}

// Active returns the ID of the message being typed, or "".
func (p *Panel) Active() string {
	if !p.Generating() {
		return ""
	}
	return p.cancelMgr.active()
}

// Tick runs the scroll controller after a reveal step. It reports whether the
// view was scrolled.
func (p *Panel) Tick() bool {
	return p.scroll.OnTick()
}

// Close stops typing and releases every session.
func (p *Panel) Close() {
	p.Stop()
	p.reg.Close()
}

// =============================================================================
// VIEWS
// =============================================================================

// Views returns the visible messages in order, formatted to their revealed
// text.
func (p *Panel) Views() []MessageView {
	msgs := p.conv.Visible()
	views := make([]MessageView, 0, len(msgs))
	for _, msg := range msgs {
		views = append(views, p.view(msg))
	}
	return views
}

// View returns the view of one message.
func (p *Panel) View(id string) (MessageView, bool) {
	msg, ok := p.conv.Find(id)
	if !ok {
		return MessageView{}, false
	}
	return p.view(msg), true
}

func (p *Panel) view(msg *model.Message) MessageView {
	v := MessageView{
		ID:        msg.ID,
		Role:      msg.Role,
		Timestamp: msg.Timestamp,
	}
	revealed := msg.Content
	if msg.Role == model.RoleAssistant {
		if st, ok := p.reg.State(msg.ID); ok {
			revealed = st.Revealed
			v.IsTyping = st.Typing()
			v.HasStopped = st.Stopped
		}
	}
	v.Nodes = p.formatter.Format(msg.Content, revealed)
	return v
}
