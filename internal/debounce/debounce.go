// Package debounce rate-limits burst triggers with leading-edge
// semantics: the first trigger in an idle period fires immediately,
// later triggers inside the cooldown window are coalesced and dropped.
package debounce

import (
	"sync"
	"time"
)

// Debouncer invokes fn at most once per window. The leading edge fires
// synchronously, which keeps a single vault edit reflected on the
// calendar without delay while a typing burst costs one rescan.
type Debouncer struct {
	window time.Duration
	fn     func()

	mu   sync.Mutex
	last time.Time
	now  func() time.Time // overridable in tests
}

// New creates a Debouncer around fn. A non-positive window defaults to
// one second.
func New(window time.Duration, fn func()) *Debouncer {
	if window <= 0 {
		window = time.Second
	}
	return &Debouncer{window: window, fn: fn, now: time.Now}
}

// Trigger fires fn when the cooldown window has elapsed since the last
// invocation; otherwise the call is coalesced and dropped.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	now := d.now()
	if now.Sub(d.last) < d.window {
		d.mu.Unlock()
		return
	}
	d.last = now
	d.mu.Unlock()

	d.fn()
}
