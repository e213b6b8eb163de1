// Package watch restarts the content worker when source files change.
package watch

import (
	"sync"
	"time"
)

// Debounced runs fn once changes stop arriving for the delay. Runs never
// overlap; a change during a run schedules one more.
type Debounced struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	running bool
	stopped bool
}

func NewDebounced(delay time.Duration, fn func()) *Debounced {
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	return &Debounced{delay: delay, fn: fn}
}

func (d *Debounced) Notify() {
	if d == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.onTimer)
		return
	}
	d.timer.Reset(d.delay)
}

// Stop cancels any pending run. A run already in progress finishes.
func (d *Debounced) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debounced) onTimer() {
	d.mu.Lock()
	if d.running {
		if d.timer != nil {
			d.timer.Reset(d.delay)
		}
		d.mu.Unlock()
		return
	}
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.running = true
	d.mu.Unlock()

	d.fn()

	d.mu.Lock()
	d.running = false
	if d.pending && !d.stopped && d.timer != nil {
		d.timer.Reset(d.delay)
	}
	d.mu.Unlock()
}
