// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build windows

package loop

import (
	"sync"
	"time"
)

// newBackend returns the Windows backend: a stub that tracks registered
// fds but never reports them ready on its own, only returning on wakeup
// or timeout. ProcessFD goes through the same wait, so on Windows neither
// it nor WaitAndProcess dispatches fd watches; idle callbacks and wakeups
// still run.
func newBackend() (backend, error) {
	return &windowsBackend{watched: map[int]Events{}, wake: make(chan struct{}, 1)}, nil
}

type windowsBackend struct {
	mu      sync.Mutex
	watched map[int]Events
	wake    chan struct{}
}

func (b *windowsBackend) add(fd int, ev Events) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watched[fd] = ev
	return nil
}

func (b *windowsBackend) modify(fd int, ev Events) error {
	return b.add(fd, ev)
}

func (b *windowsBackend) remove(fd int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.watched, fd)
	return nil
}

func (b *windowsBackend) wait(dst []ready, timeout time.Duration) ([]ready, error) {
	if timeout < 0 || timeout > 50*time.Millisecond {
		timeout = 50 * time.Millisecond
	}
	select {
	case <-b.wake:
	case <-time.After(timeout):
	}
	return dst, nil
}

func (b *windowsBackend) wake() error {
	select {
	case b.wake <- struct{}{}:
	default:
	}
	return nil
}

func (b *windowsBackend) fd() int { return -1 }

func (b *windowsBackend) close() error { return nil }
