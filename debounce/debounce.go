// Package debounce coalesces bursts of values into a single emission after a quiet period.
package debounce

import (
	"sync"
	"time"
)

// Debouncer emits the most recent value passed to Trigger once no further Trigger
// call has arrived for the configured wait. Each Trigger cancels the pending emission
// and schedules a new one. The callback runs on its own goroutine, never concurrently
// with itself.
type Debouncer[T any] struct {
	wait time.Duration
	emit func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	armed   bool
	seq     uint64
	stopped bool

	emitMu sync.Mutex
}

// New returns a debouncer calling emit after wait of silence.
func New[T any](wait time.Duration, emit func(T)) *Debouncer[T] {
	return &Debouncer[T]{wait: wait, emit: emit}
}

// Trigger records v as the pending value and restarts the quiet period.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = v
	d.armed = true
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, func() { d.fire(seq) })
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	if !d.armed || d.seq != seq || d.stopped {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.armed = false
	d.timer = nil
	d.mu.Unlock()

	d.emitMu.Lock()
	defer d.emitMu.Unlock()
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()
	if stopped {
		return
	}
	d.emit(v)
}

// Flush emits the pending value right away on the calling goroutine.
// It reports whether there was anything to emit.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.armed || d.stopped {
		d.mu.Unlock()
		return false
	}
	v := d.pending
	d.armed = false
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	d.emitMu.Lock()
	defer d.emitMu.Unlock()
	d.emit(v)
	return true
}

// Pending reports whether an emission is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// Cancel drops the pending value without emitting it.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.armed = false
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stop cancels any pending emission and ignores later Trigger calls.
// It waits for an emission already running to return.
func (d *Debouncer[T]) Stop() {
	d.Cancel()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	d.emitMu.Lock()
	d.emitMu.Unlock() //nolint:staticcheck // barrier for a running emit
}
