// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"context"
	"sync"
)

// =============================================================================
// GENERATION TOKEN (THREAD-SAFE)
// =============================================================================

// cancelManager holds the cancel function of the active generation.
// It is shared by pointer so copies of a Panel never copy the mutex.
type cancelManager struct {
	mu         sync.Mutex
	id         string
	cancelFunc context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// begin cancels any previous generation and returns the context of a new one
// owned by message id.
func (cm *cancelManager) begin(parent context.Context, id string) context.Context {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
	}
	ctx, cancel := context.WithCancel(parent)
	cm.id = id
	cm.cancelFunc = cancel
	return ctx
}

// cancel cancels the active generation and returns its message id, or "" when
// nothing was active. Safe to call repeatedly.
func (cm *cancelManager) cancel() string {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	id := cm.id
	if cm.cancelFunc != nil {
		cm.cancelFunc()
		cm.cancelFunc = nil
	}
	cm.id = ""
	return id
}

// release clears the token if it still belongs to id.
// It reports whether id was the active generation.
func (cm *cancelManager) release(id string) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.id != id || cm.cancelFunc == nil {
		return false
	}
	cm.cancelFunc()
	cm.cancelFunc = nil
	cm.id = ""
	return true
}

// active returns the message id of the active generation.
func (cm *cancelManager) active() string {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.id
}
