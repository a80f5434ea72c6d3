// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jeranaias/rigrun-reveal/internal/model"
	"github.com/jeranaias/rigrun-reveal/internal/typing"
)

// DefaultUpdateBuffer is the capacity of the Updates channel.
const DefaultUpdateBuffer = 256

// =============================================================================
// STATE
// =============================================================================

// State is the render state of one message.
//
// Completed and Stopped only ever move from false to true, and at most one of
// them becomes true. Once Stopped is set, Revealed never changes again.
type State struct {
	Revealed  string
	Completed bool
	Stopped   bool
}

// Typing reports whether the message is still being revealed.
func (s State) Typing() bool {
	return !s.Completed && !s.Stopped
}

// Terminal reports whether the state can no longer change.
func (s State) Terminal() bool {
	return s.Completed || s.Stopped
}

// Change is sent on the Updates channel whenever a slot changes.
type Change struct {
	ID    string
	State State
}

// slot holds the render state of one message ID.
type slot struct {
	fullText string
	state    State
	sched    *typing.Scheduler
	session  *typing.Session
	done     chan struct{}
}

// finish closes done once.
func (sl *slot) finish() {
	select {
	case <-sl.done:
	default:
		close(sl.done)
	}
}

// =============================================================================
// REGISTRY
// =============================================================================

// Options configures a Registry.
type Options struct {
	// Typing configures the scheduler of every slot.
	Typing typing.Options
	// UpdateBuffer is the capacity of the Updates channel (default 256).
	UpdateBuffer int
	// Logger receives debug output (default: discard).
	Logger *slog.Logger
}

// Registry maps message IDs to render state and drives typing sessions.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	slots  map[string]*slot
	typing typing.Options

	updates chan Change
	dropped atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// New creates a Registry.
func New(opts Options) *Registry {
	buf := opts.UpdateBuffer
	if buf <= 0 {
		buf = DefaultUpdateBuffer
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Typing.Logger == nil {
		opts.Typing.Logger = logger
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		slots:   make(map[string]*slot),
		typing:  opts.Typing,
		updates: make(chan Change, buf),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
	}
}

// Updates returns the change notification stream. Sends never block: when
// the buffer is full the change is dropped, so consumers should read the
// current State rather than rely on seeing every Change.
func (r *Registry) Updates() <-chan Change {
	return r.updates
}

// Dropped returns the number of changes dropped because Updates was full.
func (r *Registry) Dropped() uint64 {
	return r.dropped.Load()
}

// BeginTyping resets the slot for id and starts revealing fullText. Calling
// it again with the same text while that text is still being typed has no
// effect; different text supersedes the running session. A stopped slot
// stays frozen.
func (r *Registry) BeginTyping(id, fullText string) {
	r.mu.Lock()
	sl := r.slots[id]
	if sl != nil && sl.state.Stopped {
		r.mu.Unlock()
		r.logger.Debug("begin typing ignored, slot stopped", "id", id)
		return
	}
	if sl != nil && sl.fullText == fullText && sl.session != nil &&
		sl.session.Active() && sl.state.Typing() {
		r.mu.Unlock()
		return
	}
	if sl == nil {
		sl = &slot{
			sched: typing.New(r.typing),
			done:  make(chan struct{}),
		}
		r.slots[id] = sl
	} else {
		if sl.session != nil {
			sl.session.Cancel()
		}
		select {
		case <-sl.done:
			sl.done = make(chan struct{})
		default:
		}
	}

	sl.fullText = fullText
	sl.state = State{}
	sess := sl.sched.Start(r.ctx, fullText)
	sl.session = sess
	r.mu.Unlock()

	r.logger.Debug("begin typing", "id", id, "session", sess.ID())
	r.notify(Change{ID: id})
	go r.pump(id, sl, sess)
}

// pump applies the events of one session to its slot.
func (r *Registry) pump(id string, sl *slot, sess *typing.Session) {
	for ev := range sess.Events() {
		r.apply(id, sl, sess, ev)
	}
}

func (r *Registry) apply(id string, sl *slot, sess *typing.Session, ev typing.Event) {
	r.mu.Lock()
	// Drop events from superseded or cancelled sessions and from stopped slots.
	if sl.session != sess || sess.Cancelled() || sl.state.Terminal() {
		r.mu.Unlock()
		return
	}
	switch ev.Kind {
	case typing.EventUpdate:
		sl.state.Revealed = ev.Revealed
	case typing.EventComplete:
		sl.state.Revealed = sl.fullText
		sl.state.Completed = true
		sl.finish()
	}
	st := sl.state
	r.mu.Unlock()

	if st.Completed {
		r.logger.Debug("typing complete", "id", id, "session", sess.ID())
	}
	r.notify(Change{ID: id, State: st})
}

// Stop freezes the slot for id at its current revealed text and cancels its
// session. After Stop returns no further change is applied to the slot.
// It reports whether a typing slot was stopped.
func (r *Registry) Stop(id string) bool {
	r.mu.Lock()
	sl := r.slots[id]
	if sl == nil || sl.state.Terminal() {
		r.mu.Unlock()
		return false
	}
	sl.state.Stopped = true
	if sl.session != nil {
		sl.session.Cancel()
	}
	sl.finish()
	st := sl.state
	r.mu.Unlock()

	r.logger.Debug("typing stopped", "id", id, "revealed", len(st.Revealed))
	r.notify(Change{ID: id, State: st})
	return true
}

// StopAll stops every slot that is still typing and returns their IDs.
func (r *Registry) StopAll() []string {
	var stopped []string
	for _, id := range r.Typing() {
		if r.Stop(id) {
			stopped = append(stopped, id)
		}
	}
	return stopped
}

// MarkHistory marks every message as completed with its full content, so
// loaded history is shown at once instead of replaying the typing effect.
// Slots that already reached a terminal state are left alone.
func (r *Registry) MarkHistory(msgs []*model.Message) {
	var changes []Change

	r.mu.Lock()
	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		sl := r.slots[msg.ID]
		if sl == nil {
			sl = &slot{
				sched: typing.New(r.typing),
				done:  make(chan struct{}),
			}
			r.slots[msg.ID] = sl
		} else if sl.state.Terminal() {
			continue
		}
		if sl.session != nil {
			sl.session.Cancel()
			sl.session = nil
		}
		sl.fullText = msg.Content
		sl.state = State{Revealed: msg.Content, Completed: true}
		sl.finish()
		changes = append(changes, Change{ID: msg.ID, State: sl.state})
	}
	r.mu.Unlock()

	for _, c := range changes {
		r.notify(c)
	}
}

// State returns the render state for id.
func (r *Registry) State(id string) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sl, ok := r.slots[id]
	if !ok {
		return State{}, false
	}
	return sl.state, true
}

// IsTyping reports whether id has a slot that is neither completed nor stopped.
func (r *Registry) IsTyping(id string) bool {
	st, ok := r.State(id)
	return ok && st.Typing()
}

// HasStopped reports whether typing of id was stopped.
func (r *Registry) HasStopped(id string) bool {
	st, ok := r.State(id)
	return ok && st.Stopped
}

// Typing returns the IDs of all slots still typing.
func (r *Registry) Typing() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, sl := range r.slots {
		if sl.state.Typing() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of slots.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// Wait blocks until the slot for id is completed or stopped, or ctx is done.
func (r *Registry) Wait(ctx context.Context, id string) (State, error) {
	r.mu.Lock()
	sl, ok := r.slots[id]
	if !ok {
		r.mu.Unlock()
		return State{}, ErrUnknownID
	}
	done := sl.done
	r.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
	st, _ := r.State(id)
	return st, nil
}

// Retain drops the slots of every ID not in keep, cancelling their sessions.
func (r *Registry) Retain(keep []string) int {
	want := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		want[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, sl := range r.slots {
		if _, ok := want[id]; ok {
			continue
		}
		if sl.session != nil {
			sl.session.Cancel()
		}
		sl.finish()
		delete(r.slots, id)
		removed++
	}
	return removed
}

// Close cancels every running session. The registry must not be used after.
func (r *Registry) Close() {
	r.cancel()
}

func (r *Registry) notify(c Change) {
	select {
	case r.updates <- c:
	default:
		r.dropped.Add(1)
	}
}
