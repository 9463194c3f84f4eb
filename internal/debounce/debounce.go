package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the last scheduled function once no new call has come
// for the interval.
type Debouncer struct {
	mx       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	gen      uint64
	closed   bool
}

func New(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Call schedules f, dropping whatever was scheduled before.
func (d *Debouncer) Call(f func()) {
	d.mx.Lock()
	defer d.mx.Unlock()

	if d.closed {
		return
	}

	d.stop()

	gen := d.gen

	d.timer = time.AfterFunc(d.interval, func() {
		d.mx.Lock()

		// a timer that already fired can still lose to Cancel
		if d.closed || gen != d.gen {
			d.mx.Unlock()
			return
		}

		d.timer = nil
		d.mx.Unlock()

		f()
	})
}

// Cancel drops the scheduled call. Returns true if there was one.
func (d *Debouncer) Cancel() bool {
	d.mx.Lock()
	defer d.mx.Unlock()

	return d.stop()
}

func (d *Debouncer) Pending() bool {
	d.mx.Lock()
	defer d.mx.Unlock()

	return d.timer != nil
}

func (d *Debouncer) SetInterval(interval time.Duration) {
	d.mx.Lock()
	defer d.mx.Unlock()

	d.interval = interval
}

// Close cancels the scheduled call and ignores all further ones.
func (d *Debouncer) Close() {
	d.mx.Lock()
	defer d.mx.Unlock()

	d.stop()
	d.closed = true
}

func (d *Debouncer) stop() bool {
	d.gen++

	if d.timer == nil {
		return false
	}

	d.timer.Stop()
	d.timer = nil

	return true
}
