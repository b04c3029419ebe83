// Package debounce delays a value until its input has been stable for a
// fixed period.
package debounce

import (
	"sync"
	"time"
)

// Common delays for filter inputs.
const (
	TextDelay  = 400 * time.Millisecond
	RangeDelay = 500 * time.Millisecond
)

// Value delivers the most recent input once no new input has arrived for the
// delay. Each Set cancels any pending delivery. It is safe for concurrent
// use.
type Value[T any] struct {
	delay   time.Duration
	deliver func(T)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending T
	waiting bool
	latest  T
}

// New returns a Value seeded with initial. deliver runs on its own goroutine
// for each settled value.
func New[T any](delay time.Duration, initial T, deliver func(T)) *Value[T] {
	return &Value[T]{delay: delay, deliver: deliver, latest: initial}
}

func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.gen++
	v.pending = x
	v.waiting = true
	if v.timer != nil {
		v.timer.Stop()
	}
	gen := v.gen
	v.timer = time.AfterFunc(v.delay, func() { v.fire(gen) })
}

// Latest returns the last delivered value.
func (v *Value[T]) Latest() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.latest
}

// Pending reports whether a value is waiting for the delay to elapse.
func (v *Value[T]) Pending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.waiting
}

// Flush delivers the pending value now, on the calling goroutine.
func (v *Value[T]) Flush() {
	v.mu.Lock()
	if v.timer != nil {
		v.timer.Stop()
	}
	gen := v.gen
	v.mu.Unlock()
	v.fire(gen)
}

// Stop drops the pending value without delivering it.
func (v *Value[T]) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	v.waiting = false
	if v.timer != nil {
		v.timer.Stop()
	}
}

func (v *Value[T]) fire(gen uint64) {
	v.mu.Lock()
	if gen != v.gen || !v.waiting {
		v.mu.Unlock()
		return
	}
	v.latest = v.pending
	v.waiting = false
	x := v.latest
	v.mu.Unlock()

	if v.deliver != nil {
		v.deliver(x)
	}
}
