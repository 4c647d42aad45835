// Package preview renders watermarked live previews of form sessions.
package preview

import (
	"strings"
	"sync"
	"time"
)

// Debouncer runs at most one pending callback per key. Each Trigger for a key
// cancels the pending callback and restarts the delay.
type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[string]*time.Timer
	seq    map[string]uint64
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
		seq:    make(map[string]uint64),
	}
}

func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.seq[key]++
	gen := d.seq[key]
	d.timers[key] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// fired while a newer Trigger held the lock
		if d.seq[key] != gen {
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		delete(d.seq, key)
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending callback for key, if any.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
	delete(d.seq, key)
}

// CancelPrefix drops every pending callback whose key starts with prefix.
func (d *Debouncer) CancelPrefix(prefix string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		if strings.HasPrefix(key, prefix) {
			t.Stop()
			delete(d.timers, key)
			delete(d.seq, key)
		}
	}
}

func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Stop cancels every pending callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
		delete(d.seq, key)
	}
}
