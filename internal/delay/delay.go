// Package delay provides cancellable delayed callbacks.
package delay

import (
	"sync"
	"time"
)

// DelayExecutor runs at most one pending callback after a delay.
type DelayExecutor struct {
	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
	pending    bool
}

// NewDelayExecutor creates a new DelayExecutor.
func NewDelayExecutor() *DelayExecutor {
	return &DelayExecutor{}
}

// Schedule calls callback after delay in its own goroutine.
// A previously scheduled callback that has not run yet is canceled.
func (e *DelayExecutor) Schedule(delay time.Duration, callback func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timer != nil {
		e.timer.Stop()
	}
	e.generation++
	gen := e.generation
	e.pending = true

	if delay < 0 {
		delay = 0
	}
	e.timer = time.AfterFunc(delay, func() {
		e.mu.Lock()
		// Stop cannot prevent a timer that already fired; the generation can.
		stale := gen != e.generation || !e.pending
		e.pending = false
		e.mu.Unlock()

		if !stale && callback != nil {
			callback()
		}
	})
}

// Cancel cancels any pending callback.
func (e *DelayExecutor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending = false
	e.generation++
	if e.timer != nil {
		e.timer.Stop()
	}
}

// Pending reports whether a callback is waiting to run.
func (e *DelayExecutor) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}
