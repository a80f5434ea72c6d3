// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/rigrun-reveal/internal/model"
)

// DefaultDebounce is how long a transcript must stay quiet before it is
// reloaded.
const DefaultDebounce = 150 * time.Millisecond

// Update is one reload of the watched transcript.
type Update struct {
	Messages []*model.Message
	Err      error
}

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

// =============================================================================
// FSNOTIFY WATCHER
// =============================================================================

// Watcher reloads a transcript file whenever it changes.
//
// The parent directory is watched rather than the file so editors and
// writers that replace the file by rename are still seen.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger
	updates  chan Update

	mu      sync.Mutex
	pending time.Time // last change not yet reloaded; zero when none

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for the transcript at path. Call Start to
// begin watching.
func NewWatcher(path string, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch transcript: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch transcript: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     abs,
		watcher:  fsw,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		updates:  make(chan Update, 1),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Updates delivers reloads. Only the newest reload is kept when the reader
// falls behind.
func (w *Watcher) Updates() <-chan Update { return w.updates }

// Start watches the transcript's directory and begins delivering reloads.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch transcript: %w", err)
	}

	w.wg.Add(2)
	go w.processEvents()
	go w.processPending()
	return nil
}

// processEvents records changes to the transcript file.
func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("transcript watch error", "path", w.path, "error", err)
		}
	}
}

// processPending reloads the transcript once it has been quiet for the
// debounce interval.
func (w *Watcher) processPending() {
	defer w.wg.Done()

	interval := w.debounce / 2
	if interval > 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if due {
				w.reload()
			}
		}
	}
}

// reload parses the file and publishes the result, replacing an unread one.
func (w *Watcher) reload() {
	msgs, err := Load(w.path)
	if err != nil {
		w.logger.Warn("transcript reload failed", "path", w.path, "error", err)
	} else {
		w.logger.Debug("transcript reloaded", "path", w.path, "messages", len(msgs))
	}
	u := Update{Messages: msgs, Err: err}

	for {
		select {
		case w.updates <- u:
			return
		case <-w.ctx.Done():
			return
		default:
		}
		// Drop the stale update and retry.
		select {
		case <-w.updates:
		default:
		}
	}
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
