package device

import (
	"sync"
	"time"
)

// FlushFunc receives the final coalesced value for a device property
// once the debounce window closes. It runs on a timer goroutine.
type FlushFunc func(deviceID, field string, value int)

// Debouncer coalesces rapid property updates (slider drags) into a
// single flush per device+field. Each Set restarts that key's window;
// only the last value inside the window is flushed.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	flush    FlushFunc
	pending  map[string]*pendingWrite
	stopped  bool
}

type pendingWrite struct {
	deviceID string
	field    string
	value    int
	timer    *time.Timer
}

// NewDebouncer creates a debouncer that delivers coalesced values to
// flush after interval of quiet per device+field key.
func NewDebouncer(interval time.Duration, flush FlushFunc) *Debouncer {
	return &Debouncer{
		interval: interval,
		flush:    flush,
		pending:  make(map[string]*pendingWrite),
	}
}

// Set records a new value for the device property and restarts its
// debounce window.
func (d *Debouncer) Set(deviceID, field string, value int) {
	key := deviceID + "\x00" + field

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if w, ok := d.pending[key]; ok {
		w.value = value
		w.timer.Reset(d.interval)
		return
	}

	w := &pendingWrite{deviceID: deviceID, field: field, value: value}
	w.timer = time.AfterFunc(d.interval, func() { d.fire(key) })
	d.pending[key] = w
}

// Cancel drops any pending writes for the device without flushing them.
// Used when the device is deleted mid-drag.
func (d *Debouncer) Cancel(deviceID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, w := range d.pending {
		if w.deviceID == deviceID {
			w.timer.Stop()
			delete(d.pending, key)
		}
	}
}

// Flush delivers every pending write immediately.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	writes := make([]*pendingWrite, 0, len(d.pending))
	for key, w := range d.pending {
		w.timer.Stop()
		writes = append(writes, w)
		delete(d.pending, key)
	}
	flush := d.flush
	d.mu.Unlock()

	for _, w := range writes {
		flush(w.deviceID, w.field, w.value)
	}
}

// Stop cancels all pending writes and rejects further Sets.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for key, w := range d.pending {
		w.timer.Stop()
		delete(d.pending, key)
	}
}

func (d *Debouncer) fire(key string) {
	d.mu.Lock()
	w, ok := d.pending[key]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	flush := d.flush
	d.mu.Unlock()

	flush(w.deviceID, w.field, w.value)
}
