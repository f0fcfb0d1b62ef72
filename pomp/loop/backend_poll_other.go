// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux && !windows && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package loop

import (
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// newBackend returns the portable poll(2)-based fallback used on platforms
// without a native epoll or kqueue. A worker goroutine is not needed here
// since unix.Poll already blocks with a millisecond timeout and wake is
// delivered via a self-pipe entry in the same poll set; true external-fd
// integration is left to the epoll/kqueue backends.
func newBackend() (backend, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return nil, pkgerrors.Wrap(err, "pomp/loop: wake pipe")
	}
	return &pollBackend{
		wakeR:   fds[0],
		wakeW:   fds[1],
		watched: map[int]Events{},
	}, nil
}

// pollBackend multiplexes fds with repeated unix.Poll calls; O(n) per wait
// but portable to any unix.Poll-capable target.
type pollBackend struct {
	mu      sync.Mutex
	wakeR   int
	wakeW   int
	watched map[int]Events
}

func toPollEvents(ev Events) int16 {
	var e int16
	if ev.Has(In) {
		e |= unix.POLLIN
	}
	if ev.Has(Pri) {
		e |= unix.POLLPRI
	}
	if ev.Has(Out) {
		e |= unix.POLLOUT
	}
	return e
}

func fromPollEvents(e int16) Events {
	var ev Events
	if e&unix.POLLIN != 0 {
		ev |= In
	}
	if e&unix.POLLPRI != 0 {
		ev |= Pri
	}
	if e&unix.POLLOUT != 0 {
		ev |= Out
	}
	if e&unix.POLLERR != 0 {
		ev |= Err
	}
	if e&unix.POLLHUP != 0 {
		ev |= Hup
	}
	return ev
}

func (b *pollBackend) add(fd int, ev Events) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watched[fd] = ev
	return nil
}

func (b *pollBackend) modify(fd int, ev Events) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watched[fd] = ev
	return nil
}

func (b *pollBackend) remove(fd int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.watched, fd)
	return nil
}

func (b *pollBackend) wait(dst []ready, timeout time.Duration) ([]ready, error) {
	b.mu.Lock()
	fds := make([]unix.PollFd, 0, len(b.watched)+1)
	fds = append(fds, unix.PollFd{Fd: int32(b.wakeR), Events: unix.POLLIN})
	for fd, ev := range b.watched {
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: toPollEvents(ev)})
	}
	b.mu.Unlock()

	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	n, err := unix.Poll(fds, ms)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, pkgerrors.Wrap(err, "pomp/loop: poll")
	}
	if n == 0 {
		return dst, nil
	}
	for _, pfd := range fds {
		if pfd.Revents == 0 {
			continue
		}
		if int(pfd.Fd) == b.wakeR {
			b.drainWake()
			continue
		}
		dst = append(dst, ready{fd: int(pfd.Fd), events: fromPollEvents(pfd.Revents)})
	}
	return dst, nil
}

func (b *pollBackend) drainWake() {
	var buf [64]byte
	for {
		_, err := unix.Read(b.wakeR, buf[:])
		if err != nil {
			return
		}
	}
}

func (b *pollBackend) wake() error {
	_, err := unix.Write(b.wakeW, []byte{1})
	if err != nil && err != unix.EAGAIN {
		return pkgerrors.Wrap(err, "pomp/loop: wake pipe write")
	}
	return nil
}

func (b *pollBackend) fd() int { return b.wakeR }

func (b *pollBackend) close() error {
	_ = unix.Close(b.wakeR)
	return unix.Close(b.wakeW)
}
