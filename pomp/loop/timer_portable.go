// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package loop

import (
	"sync"
	"time"
)

// newTimerImpl realizes a Timer on platforms without timerfd (BSD/Darwin,
// Windows, and the portable poll backend): a background time.AfterFunc
// fires and hands off to AddIdle so the callback still runs on the loop's
// owning goroutine, trading a native kqueue EVFILT_TIMER/Windows
// timer-queue realization for one portable implementation.
func newTimerImpl(l *Loop, cb func()) (timerImpl, error) {
	return &portableTimer{loop: l, cb: cb}, nil
}

type portableTimer struct {
	loop  *Loop
	cb    func()
	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

func (t *portableTimer) arm(first, period time.Duration) error {
	t.mu.Lock()
	t.gen++
	myGen := t.gen
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()

	if first <= 0 {
		return nil
	}
	t.schedule(myGen, first, period)
	return nil
}

func (t *portableTimer) schedule(gen uint64, delay, period time.Duration) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.timer = time.AfterFunc(delay, func() { t.fire(gen, period) })
	t.mu.Unlock()
}

func (t *portableTimer) fire(gen uint64, period time.Duration) {
	t.mu.Lock()
	stillArmed := gen == t.gen
	t.mu.Unlock()
	if !stillArmed {
		return
	}

	_ = t.loop.AddIdle(func() {
		t.mu.Lock()
		fire := gen == t.gen
		t.mu.Unlock()
		if fire {
			t.cb()
		}
	})

	if period > 0 {
		t.schedule(gen, period, period)
	}
}

func (t *portableTimer) close() error {
	return t.arm(0, 0)
}
