// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package typing simulates live typing of a finished response.
//
// A Session reveals a fixed string in chunks of a few characters at a paced
// rate and reports progress as Events on a channel. The first event of every
// session is an empty update so a consumer never renders the full text before
// typing starts. A cancelled session stops immediately: it never catches up
// and never reports completion.
package typing

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventKind distinguishes progress from completion.
type EventKind int

const (
	// EventUpdate carries a new revealed prefix.
	EventUpdate EventKind = iota
	// EventComplete marks the end of an uncancelled session.
	EventComplete
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventUpdate:
		return "update"
	case EventComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Event is one step of a session.
type Event struct {
	Session  uint64
	Kind     EventKind
	Revealed string
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one run of the scheduler over one string.
type Session struct {
	id        uint64
	fullText  string
	chunkSize int
	delay     time.Duration

	ctx       context.Context
	cancelFn  context.CancelFunc
	cancelled atomic.Bool
	completed atomic.Bool

	events chan Event
	done   chan struct{}
}

// ID returns the session identifier. IDs are unique per Scheduler.
func (s *Session) ID() uint64 { return s.id }

// Text returns the full text being revealed.
func (s *Session) Text() string { return s.fullText }

// Delay returns the interval between ticks.
func (s *Session) Delay() time.Duration { return s.delay }

// Events returns the event stream. It is closed when the session ends.
func (s *Session) Events() <-chan Event { return s.events }

// Done is closed once the session goroutine has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Cancelled reports whether Cancel was called.
func (s *Session) Cancelled() bool { return s.cancelled.Load() }

// Completed reports whether the session revealed everything and was not cancelled.
func (s *Session) Completed() bool { return s.completed.Load() }

// Active reports whether the session goroutine is still running.
func (s *Session) Active() bool {
	select {
	case <-s.done:
		return false
	default:
		return !s.cancelled.Load()
	}
}

// Cancel stops the session. No event is sent after Cancel returns, and no
// EventComplete is ever sent for a cancelled session. Safe to call repeatedly.
func (s *Session) Cancel() {
	if s.cancelled.CompareAndSwap(false, true) {
		s.cancelFn()
	}
}

// Run drains the session into callbacks and returns when the session ends.
// Each callback is skipped once the session is cancelled, so a stale event
// already in flight is never delivered.
func (s *Session) Run(onUpdate func(revealed string), onComplete func()) {
	for ev := range s.events {
		if s.cancelled.Load() {
			continue
		}
		switch ev.Kind {
		case EventUpdate:
			if onUpdate != nil {
				onUpdate(ev.Revealed)
			}
		case EventComplete:
			if onComplete != nil {
				onComplete()
			}
		}
	}
}

func (s *Session) run(pacer Pacer) {
	// done closes before events so a drained stream implies !Active().
	defer close(s.events)
	defer close(s.done)

	if !s.emit(Event{Session: s.id, Kind: EventUpdate}) {
		return
	}

	pos := 0
	for pos < len(s.fullText) {
		if err := pacer.Wait(s.ctx); err != nil {
			return
		}
		pos = advance(s.fullText, pos, s.chunkSize)
		if !s.emit(Event{Session: s.id, Kind: EventUpdate, Revealed: s.fullText[:pos]}) {
			return
		}
	}

	if s.cancelled.Load() {
		return
	}
	s.completed.Store(true)
	s.emit(Event{Session: s.id, Kind: EventComplete, Revealed: s.fullText})
}

func (s *Session) emit(ev Event) bool {
	if s.cancelled.Load() {
		return false
	}
	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// advance moves pos forward by n runes.
func advance(text string, pos, n int) int {
	for i := 0; i < n && pos < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[pos:])
		pos += size
	}
	return pos
}

// =============================================================================
// SCHEDULER
// =============================================================================

// Options configures a Scheduler.
type Options struct {
	// WPM is the reveal rate in words per minute (default 600).
	WPM int
	// ChunkSize is the number of characters per tick (default 4).
	ChunkSize int
	// Pacer builds the tick source for each session (default: rate limiter).
	Pacer PacerFactory
	// Logger receives debug output (default: discard).
	Logger *slog.Logger
}

// Scheduler starts typing sessions for one slot. At most one session is
// active at a time: starting a new one supersedes the previous.
type Scheduler struct {
	mu        sync.Mutex
	chunkSize int
	delay     time.Duration
	pacer     PacerFactory
	logger    *slog.Logger
	current   *Session
	nextID    atomic.Uint64
}

// New creates a Scheduler.
func New(opts Options) *Scheduler {
	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	pacer := opts.Pacer
	if pacer == nil {
		pacer = NewRatePacer
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		chunkSize: chunk,
		delay:     Delay(opts.WPM, chunk),
		pacer:     pacer,
		logger:    logger,
	}
}

// Delay returns the tick interval used for new sessions.
func (sc *Scheduler) Delay() time.Duration { return sc.delay }

// ChunkSize returns the number of characters revealed per tick.
func (sc *Scheduler) ChunkSize() int { return sc.chunkSize }

// Start begins revealing text. If the active session is already revealing the
// same text it is returned unchanged; otherwise the active session is
// cancelled first. The session stops when ctx is cancelled.
func (sc *Scheduler) Start(ctx context.Context, text string) *Session {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if cur := sc.current; cur != nil {
		if cur.Active() && cur.fullText == text {
			return cur
		}
		cur.Cancel()
	}

	sessCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:        sc.nextID.Add(1),
		fullText:  text,
		chunkSize: sc.chunkSize,
		delay:     sc.delay,
		ctx:       sessCtx,
		cancelFn:  cancel,
		events:    make(chan Event),
		done:      make(chan struct{}),
	}
	sc.current = s

	sc.logger.Debug("typing session started",
		"session", s.id, "chars", utf8.RuneCountInString(text), "delay", sc.delay)

	go func() {
		s.run(sc.pacer(sc.delay))
		// Release the derived context once the goroutine is finished.
		cancel()
		sc.logger.Debug("typing session ended",
			"session", s.id, "completed", s.completed.Load(), "cancelled", s.cancelled.Load())
	}()
	return s
}

// Current returns the most recently started session, or nil.
func (sc *Scheduler) Current() *Session {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.current
}

// Cancel cancels the active session, if any.
func (sc *Scheduler) Cancel() {
	sc.mu.Lock()
	cur := sc.current
	sc.mu.Unlock()
	if cur != nil {
		cur.Cancel()
	}
}
