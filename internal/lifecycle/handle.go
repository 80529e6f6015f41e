// Package lifecycle binds background tasks to the lifetime of the entity that
// owns them. When the owner closes its handle, pending sleeps wake early and
// every task is expected to return.
package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrClosed is returned from Sleep when the owner went away while waiting.
var ErrClosed = errors.New("lifecycle: owner closed")

// Handle is the lifetime controller for one owner (a caster, an enemy).
type Handle struct {
	name   string
	clock  clockwork.Clock
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a handle derived from parent. Cancelling parent closes the
// handle's context too. A nil clock uses the real clock.
func New(parent context.Context, name string, clock clockwork.Clock) *Handle {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Handle{
		name:   name,
		clock:  clock,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Name returns the owner name the handle was created with.
func (h *Handle) Name() string { return h.name }

// Clock returns the time source shared by every task on this handle.
func (h *Handle) Clock() clockwork.Clock { return h.clock }

// Done returns a channel closed when the owner goes away.
func (h *Handle) Done() <-chan struct{} { return h.ctx.Done() }

// Alive reports whether the owner is still active.
func (h *Handle) Alive() bool { return h.ctx.Err() == nil }

// Go runs fn as a task bound to the owner. It returns false, without running
// fn, if the handle is already closed.
func (h *Handle) Go(fn func(ctx context.Context)) bool {
	h.mu.Lock()
	if h.closed || h.ctx.Err() != nil {
		h.mu.Unlock()
		return false
	}
	h.wg.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.wg.Done()
		fn(h.ctx)
	}()
	return true
}

// Sleep pauses for d on the handle's clock. It returns ErrClosed if the owner
// went away before or during the wait, or ctx.Err() if ctx ended first. A nil
// return means the caller may act on the owner again.
func (h *Handle) Sleep(ctx context.Context, d time.Duration) error {
	if d > 0 {
		timer := h.clock.NewTimer(d)
		select {
		case <-h.ctx.Done():
			timer.Stop()
			return ErrClosed
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.Chan():
		}
	}
	if !h.Alive() {
		return ErrClosed
	}
	return ctx.Err()
}

// Every calls fn once per period until the owner closes or ctx ends.
func (h *Handle) Every(ctx context.Context, period time.Duration, fn func()) {
	ticker := h.clock.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if !h.Alive() {
				return
			}
			fn()
		}
	}
}

// Close marks the owner inactive, wakes every pending Sleep and waits for
// running tasks to return. It is safe to call more than once.
func (h *Handle) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	h.cancel()
	h.wg.Wait()
}
