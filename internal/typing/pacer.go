// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package typing

import (
	"context"
	"math"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultWPM is the default reveal rate in words per minute.
	DefaultWPM = 600
	// DefaultChunkSize is the number of characters revealed per tick.
	DefaultChunkSize = 4
	// AvgCharsPerWord converts words per minute into characters per second.
	AvgCharsPerWord = 5
	// MinDelay is the shortest interval between ticks (one 60Hz frame).
	MinDelay = 16 * time.Millisecond
)

// Delay returns the interval between reveal ticks for a rate and chunk size:
// max(16ms, round(chunk / (wpm*5/60) * 1000) ms). Non-positive inputs fall
// back to the defaults.
func Delay(wpm, chunkSize int) time.Duration {
	if wpm <= 0 {
		wpm = DefaultWPM
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	charsPerSecond := float64(wpm) * AvgCharsPerWord / 60
	ms := math.Round(float64(chunkSize) / charsPerSecond * 1000)
	d := time.Duration(ms) * time.Millisecond
	if d < MinDelay {
		return MinDelay
	}
	return d
}

// Pacer blocks until the next reveal tick is due.
type Pacer interface {
	Wait(ctx context.Context) error
}

// PacerFactory builds a pacer for one session.
type PacerFactory func(delay time.Duration) Pacer

// ratePacer spaces ticks with a token bucket of size one.
type ratePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer returns a Pacer that releases one tick per delay. The initial
// token is spent up front so that even the first chunk waits a full delay.
func NewRatePacer(delay time.Duration) Pacer {
	limiter := rate.NewLimiter(rate.Every(delay), 1)
	limiter.Allow()
	return &ratePacer{limiter: limiter}
}

func (p *ratePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
