// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package loop

import (
	"sync"
	"time"
)

// Watchdog detects a dispatch pass that runs longer than delay and
// invokes cb once; it re-arms on the next pass entry. Implemented as a
// polling goroutine rather than a monotonic-clock condition-variable wait
// (sync.Cond has no timed wait); the externally visible behavior —
// one callback per stuck pass, re-armed on the next entry — is the same.
type Watchdog struct {
	delay time.Duration
	cb    func()

	mu        sync.Mutex
	gen       uint64
	enteredAt time.Time
	armed     bool

	stopOnce sync.Once
	stopCh   chan struct{}
}

func newWatchdog(delay time.Duration, cb func()) *Watchdog {
	w := &Watchdog{delay: delay, cb: cb, stopCh: make(chan struct{})}
	go w.run()
	return w
}

func (w *Watchdog) markEnter() {
	w.mu.Lock()
	w.gen++
	w.enteredAt = time.Now()
	w.armed = true
	w.mu.Unlock()
}

func (w *Watchdog) run() {
	interval := w.delay / 4
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.mu.Lock()
			if w.armed && time.Since(w.enteredAt) >= w.delay {
				w.armed = false
				cb := w.cb
				w.mu.Unlock()
				if cb != nil {
					cb()
				}
				continue
			}
			w.mu.Unlock()
		}
	}
}

// Disable stops the watchdog goroutine. Safe to call more than once.
func (w *Watchdog) Disable() error {
	w.stopOnce.Do(func() { close(w.stopCh) })
	return nil
}

// EnableWatchdog starts a watchdog on l: if a dispatch pass (WaitAndProcess
// or ProcessFD) takes longer than delay to return to the next pass entry,
// cb fires once; it re-arms automatically.
func (l *Loop) EnableWatchdog(delay time.Duration, cb func()) *Watchdog {
	w := newWatchdog(delay, cb)
	l.wd = w
	return w
}

// DisableWatchdog stops and detaches l's watchdog, if any.
func (l *Loop) DisableWatchdog() error {
	if l.wd == nil {
		return nil
	}
	err := l.wd.Disable()
	l.wd = nil
	return err
}
