// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-reveal/internal/model"
	"github.com/jeranaias/rigrun-reveal/internal/typing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type instantPacer struct{}

func (instantPacer) Wait(ctx context.Context) error { return ctx.Err() }

func instant(time.Duration) typing.Pacer { return instantPacer{} }

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

func (p *stepPacer) factory(time.Duration) typing.Pacer { return p }

// tryTick offers one tick without blocking.
func (p *stepPacer) tryTick() {
	select {
	case p.ticks <- struct{}{}:
	default:
	}
}

func waitFor(t *testing.T, reg *Registry, id string, cond func(State) bool) State {
	t.Helper()
	var st State
	require.Eventually(t, func() bool {
		st, _ = reg.State(id)
		return cond(st)
	}, 2*time.Second, time.Millisecond)
	return st
}

func newTestRegistry(t *testing.T, opts typing.Options) *Registry {
	t.Helper()
	reg := New(Options{Typing: opts})
	t.Cleanup(reg.Close)
	return reg
}

// =============================================================================
// TYPING TESTS
// =============================================================================

func TestBeginTyping_CompletesWithFullText(t *testing.T) {
	reg := newTestRegistry(t, typing.Options{Pacer: instant})
	reg.BeginTyping("m1", "Hello world")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := reg.Wait(ctx, "m1")
	require.NoError(t, err)

	assert.Equal(t, State{Revealed: "Hello world", Completed: true}, st)
	assert.False(t, reg.IsTyping("m1"))
	assert.False(t, reg.HasStopped("m1"))
}

func TestBeginTyping_StartsEmpty(t *testing.T) {
	pacer := newStepPacer()
	reg := newTestRegistry(t, typing.Options{Pacer: pacer.factory})
	reg.BeginTyping("m1", "Hello world")

	st, ok := reg.State("m1")
	require.True(t, ok)
	assert.Equal(t, "", st.Revealed)
	assert.True(t, reg.IsTyping("m1"))
}

func TestBeginTyping_EmptyContentCompletes(t *testing.T) {
	reg := newTestRegistry(t, typing.Options{Pacer: newStepPacer().factory})
	reg.BeginTyping("m1", "")

	st := waitFor(t, reg, "m1", func(s State) bool { return s.Completed })
	assert.Equal(t, "", st.Revealed)
}

func TestBeginTyping_SameTextIsIdempotent(t *testing.T) {
	pacer := newStepPacer()
	reg := newTestRegistry(t, typing.Options{Pacer: pacer.factory})

	reg.BeginTyping("m1", "same")
	first := reg.slots["m1"].session
	reg.BeginTyping("m1", "same")

	assert.Same(t, first, reg.slots["m1"].session)
	assert.False(t, first.Cancelled())
}

func TestBeginTyping_DifferentTextSupersedes(t *testing.T) {
	pacer := newStepPacer()
	reg := newTestRegistry(t, typing.Options{Pacer: pacer.factory, ChunkSize: 100})

	reg.BeginTyping("m1", "first answer")
	first := reg.slots["m1"].session
	reg.BeginTyping("m1", "second answer")

	assert.True(t, first.Cancelled())
	st := waitFor(t, reg, "m1", func(s State) bool {
		pacer.tryTick()
		return s.Completed
	})
	assert.Equal(t, "second answer", st.Revealed)
}

// =============================================================================
// STOP TESTS
// =============================================================================

func TestStop_FreezesRevealedText(t *testing.T) {
	pacer := newStepPacer()
	reg := newTestRegistry(t, typing.Options{Pacer: pacer.factory, ChunkSize: 3})
	reg.BeginTyping("m1", "Hello world")

	pacer.ticks <- struct{}{}
	waitFor(t, reg, "m1", func(s State) bool { return s.Revealed == "Hel" })

	require.True(t, reg.Stop("m1"))

	// Ticks after the stop must not move the slot.
	for i := 0; i < 5; i++ {
		pacer.tryTick()
	}
	time.Sleep(20 * time.Millisecond)

	st, ok := reg.State("m1")
	require.True(t, ok)
	assert.Equal(t, State{Revealed: "Hel", Stopped: true}, st)
	assert.False(t, reg.IsTyping("m1"))
	assert.True(t, reg.HasStopped("m1"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	st, err := reg.Wait(ctx, "m1")
	require.NoError(t, err)
	assert.NotEqual(t, "Hello world", st.Revealed)
}

func TestStop_BeforeFirstTick(t *testing.T) {
	reg := newTestRegistry(t, typing.Options{Pacer: newStepPacer().factory})
	reg.BeginTyping("m1", "Hello world")

	require.True(t, reg.Stop("m1"))
	st, _ := reg.State("m1")
	assert.Equal(t, State{Stopped: true}, st)
}

func TestStop_AfterCompletionIsNoop(t *testing.T) {
	reg := newTestRegistry(t, typing.Options{Pacer: instant})
	reg.BeginTyping("m1", "done")
	waitFor(t, reg, "m1", func(s State) bool { return s.Completed })

	assert.False(t, reg.Stop("m1"))
	st, _ := reg.State("m1")
	assert.Equal(t, State{Revealed: "done", Completed: true}, st)
}

func TestStop_Twice(t *testing.T) {
	reg := newTestRegistry(t, typing.Options{Pacer: newStepPacer().factory})
	reg.BeginTyping("m1", "text")

	assert.True(t, reg.Stop("m1"))
	assert.False(t, reg.Stop("m1"))
}

func TestStop_UnknownID(t *testing.T) {
	reg := newTestRegistry(t, typing.Options{})
	assert.False(t, reg.Stop("missing"))
	assert.False(t, reg.IsTyping("missing"))
	assert.False(t, reg.HasStopped("missing"))
}

func TestStopAll(t *testing.T) {
	reg := newTestRegistry(t, typing.Options{Pacer: newStepPacer().factory})
	reg.BeginTyping("a", "one")
	reg.BeginTyping("b", "two")

	stopped := reg.StopAll()
	sort.Strings(stopped)
	assert.Equal(t, []string{"a", "b"}, stopped)
	assert.Empty(t, reg.Typing())
}

func TestBeginTyping_StoppedSlotStaysFrozen(t *testing.T) {
	pacer := newStepPacer()
	reg := newTestRegistry(t, typing.Options{Pacer: pacer.factory, ChunkSize: 2})
	reg.BeginTyping("m1", "Hello world")
	pacer.ticks <- struct{}{}
	waitFor(t, reg, "m1", func(s State) bool { return s.Revealed == "He" })
	require.True(t, reg.Stop("m1"))

	reg.BeginTyping("m1", "Hello world")
	for i := 0; i < 5; i++ {
		pacer.tryTick()
	}
	time.Sleep(20 * time.Millisecond)

	st, ok := reg.State("m1")
	require.True(t, ok)
	assert.Equal(t, State{Revealed: "He", Stopped: true}, st)
	assert.False(t, reg.IsTyping("m1"))
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestMarkHistory(t *testing.T) {
	reg := newTestRegistry(t, typing.Options{})
	msgs := []*model.Message{
		model.NewUserMessage("question"),
		model.NewAssistantMessage("answer"),
		nil,
	}
	reg.MarkHistory(msgs)

	for _, msg := range msgs[:2] {
		st, ok := reg.State(msg.ID)
		require.True(t, ok)
		assert.Equal(t, State{Revealed: msg.Content, Completed: true}, st)
		assert.False(t, reg.IsTyping(msg.ID))
	}
	assert.Equal(t, 2, reg.Len())
}

func TestMarkHistory_KeepsStoppedSlot(t *testing.T) {
	reg := newTestRegistry(t, typing.Options{Pacer: newStepPacer().factory})
	msg := model.NewAssistantMessage("long answer")
	reg.BeginTyping(msg.ID, msg.Content)
	require.True(t, reg.Stop(msg.ID))

	reg.MarkHistory([]*model.Message{msg})

	st, _ := reg.State(msg.ID)
	assert.True(t, st.Stopped)
	assert.False(t, st.Completed)
	assert.Equal(t, "", st.Revealed)
}

func TestMarkHistory_CompletesTypingSlot(t *testing.T) {
	reg := newTestRegistry(t, typing.Options{Pacer: newStepPacer().factory})
	msg := model.NewAssistantMessage("answer")
	reg.BeginTyping(msg.ID, msg.Content)

	reg.MarkHistory([]*model.Message{msg})

	st, _ := reg.State(msg.ID)
	assert.Equal(t, State{Revealed: "answer", Completed: true}, st)
}

// =============================================================================
// NOTIFICATION AND LIFECYCLE TESTS
// =============================================================================

func TestUpdates_ReportsProgress(t *testing.T) {
	reg := newTestRegistry(t, typing.Options{Pacer: instant})
	reg.BeginTyping("m1", "Hello world")

	var seen []string
	timeout := time.After(2 * time.Second)
	for {
		select {
		case c := <-reg.Updates():
			require.Equal(t, "m1", c.ID)
			seen = append(seen, c.State.Revealed)
			if c.State.Completed {
				assert.Equal(t, "Hello world", c.State.Revealed)
				assert.Contains(t, seen, "Hell")
				return
			}
		case <-timeout:
			t.Fatalf("no completion change; saw %v", seen)
		}
	}
}

func TestUpdates_DropWhenFull(t *testing.T) {
	reg := New(Options{UpdateBuffer: 1})
	defer reg.Close()

	reg.MarkHistory([]*model.Message{
		model.NewAssistantMessage("a"),
		model.NewAssistantMessage("b"),
		model.NewAssistantMessage("c"),
	})
	assert.Equal(t, uint64(2), reg.Dropped())
}

func TestWait_Errors(t *testing.T) {
	reg := newTestRegistry(t, typing.Options{Pacer: newStepPacer().factory})

	_, err := reg.Wait(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownID)

	reg.BeginTyping("m1", "slow")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = reg.Wait(ctx, "m1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetain(t *testing.T) {
	reg := newTestRegistry(t, typing.Options{Pacer: newStepPacer().factory})
	reg.BeginTyping("keep", "a")
	reg.BeginTyping("drop", "b")
	dropped := reg.slots["drop"].session

	assert.Equal(t, 1, reg.Retain([]string{"keep"}))
	assert.Equal(t, 1, reg.Len())
	assert.True(t, dropped.Cancelled())
	_, ok := reg.State("drop")
	assert.False(t, ok)
}
