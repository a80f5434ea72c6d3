// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package typing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST PACERS
// =============================================================================

// instantPacer never waits.
type instantPacer struct{}

func (instantPacer) Wait(ctx context.Context) error { return ctx.Err() }

func instant(time.Duration) Pacer { return instantPacer{} }

// stepPacer releases one tick per value sent on ticks.
type stepPacer struct {
	ticks chan struct{}
}

func newStepPacer() *stepPacer { return &stepPacer{ticks: make(chan struct{})} }

func (p *stepPacer) Wait(ctx context.Context) error {
	select {
	case <-p.ticks:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *stepPacer) factory(time.Duration) Pacer { return p }

func nextEvent(t *testing.T, s *Session) (Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		return ev, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}, false
	}
}

// =============================================================================
// RATE CONVERSION TESTS
// =============================================================================

func TestDelay(t *testing.T) {
	tests := []struct {
		name  string
		wpm   int
		chunk int
		want  time.Duration
	}{
		{"default 600wpm", 600, 4, 80 * time.Millisecond},
		{"slow 300wpm", 300, 4, 160 * time.Millisecond},
		{"rounded", 700, 4, 69 * time.Millisecond},
		{"clamped to one frame", 6000, 4, 16 * time.Millisecond},
		{"zero wpm uses default", 0, 4, 80 * time.Millisecond},
		{"zero chunk uses default", 600, 0, 80 * time.Millisecond},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Delay(tc.wpm, tc.chunk))
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	sc := New(Options{})
	assert.Equal(t, DefaultChunkSize, sc.ChunkSize())
	assert.Equal(t, 80*time.Millisecond, sc.Delay())
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestSession_FirstUpdateIsEmpty(t *testing.T) {
	sc := New(Options{Pacer: instant})
	s := sc.Start(context.Background(), "Hello world")

	ev, ok := nextEvent(t, s)
	require.True(t, ok)
	assert.Equal(t, EventUpdate, ev.Kind)
	assert.Equal(t, "", ev.Revealed)
	s.Cancel()
}

func TestSession_RevealsInChunksAndCompletesOnce(t *testing.T) {
	sc := New(Options{Pacer: instant})
	s := sc.Start(context.Background(), "Hello world")

	var updates []string
	completions := 0
	s.Run(func(r string) { updates = append(updates, r) }, func() { completions++ })

	assert.Equal(t, []string{"", "Hell", "Hello wo", "Hello world"}, updates)
	assert.Equal(t, 1, completions)
	assert.True(t, s.Completed())
	assert.False(t, s.Active())
}

func TestSession_ChunksCountRunes(t *testing.T) {
	sc := New(Options{Pacer: instant})
	s := sc.Start(context.Background(), "héllo wörld")

	var updates []string
	s.Run(func(r string) { updates = append(updates, r) }, nil)

	assert.Equal(t, []string{"", "héll", "héllo wö", "héllo wörld"}, updates)
}

func TestSession_EmptyTextCompletesWithOneEmptyUpdate(t *testing.T) {
	sc := New(Options{Pacer: newStepPacer().factory})
	s := sc.Start(context.Background(), "")

	var updates []string
	completions := 0
	s.Run(func(r string) { updates = append(updates, r) }, func() { completions++ })

	assert.Equal(t, []string{""}, updates)
	assert.Equal(t, 1, completions)
}

func TestSession_CancelFreezesLastUpdate(t *testing.T) {
	pacer := newStepPacer()
	sc := New(Options{Pacer: pacer.factory})
	s := sc.Start(context.Background(), "Hello world")

	ev, _ := nextEvent(t, s)
	assert.Equal(t, "", ev.Revealed)

	pacer.ticks <- struct{}{}
	ev, _ = nextEvent(t, s)
	assert.Equal(t, "Hell", ev.Revealed)

	s.Cancel()
	assert.True(t, s.Cancelled())

	// The stream closes without further updates and without completion.
	for ev := range s.Events() {
		t.Fatalf("unexpected event after cancel: %+v", ev)
	}
	<-s.Done()
	assert.False(t, s.Completed())
	assert.False(t, s.Active())
}

func TestSession_RunSkipsCallbacksAfterCancel(t *testing.T) {
	pacer := newStepPacer()
	sc := New(Options{Pacer: pacer.factory})
	s := sc.Start(context.Background(), "abcdefgh")

	var updates []string
	completed := false
	s.Run(func(r string) {
		updates = append(updates, r)
		if r == "" {
			// Cancel from inside the first callback; nothing else may arrive.
			s.Cancel()
		}
	}, func() { completed = true })

	assert.Equal(t, []string{""}, updates)
	assert.False(t, completed)
}

func TestSession_ParentContextStopsSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sc := New(Options{Pacer: newStepPacer().factory})
	s := sc.Start(ctx, "abcdefgh")

	ev, _ := nextEvent(t, s)
	assert.Equal(t, "", ev.Revealed)
	cancel()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop on context cancellation")
	}
	assert.False(t, s.Completed())
}

// =============================================================================
// SCHEDULER RE-ENTRANCY TESTS
// =============================================================================

func TestScheduler_SameTextIsIdempotent(t *testing.T) {
	pacer := newStepPacer()
	sc := New(Options{Pacer: pacer.factory})

	first := sc.Start(context.Background(), "same text")
	second := sc.Start(context.Background(), "same text")

	assert.Same(t, first, second)
	assert.False(t, first.Cancelled())
	first.Cancel()
}

func TestScheduler_DifferentTextSupersedes(t *testing.T) {
	pacer := newStepPacer()
	sc := New(Options{Pacer: pacer.factory})

	first := sc.Start(context.Background(), "first answer")
	second := sc.Start(context.Background(), "second answer")

	assert.NotSame(t, first, second)
	assert.True(t, first.Cancelled())
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Same(t, second, sc.Current())

	sc.Cancel()
	assert.True(t, second.Cancelled())
}

func TestScheduler_RestartAfterCompletion(t *testing.T) {
	sc := New(Options{Pacer: instant})
	first := sc.Start(context.Background(), "abc")
	first.Run(nil, nil)

	second := sc.Start(context.Background(), "abc")
	assert.NotSame(t, first, second)
	second.Run(nil, nil)
	assert.True(t, second.Completed())
}

// =============================================================================
// RATE PACER TESTS
// =============================================================================

func TestRatePacer_SpacesTicks(t *testing.T) {
	sc := New(Options{WPM: 100000})
	require.Equal(t, MinDelay, sc.Delay())

	text := strings.Repeat("x", 8)
	start := time.Now()
	s := sc.Start(context.Background(), text)

	var last string
	s.Run(func(r string) { last = r }, nil)
	elapsed := time.Since(start)

	assert.Equal(t, text, last)
	// Two timed chunks of 16ms each; the empty update is not paced.
	assert.GreaterOrEqual(t, elapsed, 25*time.Millisecond)
}
