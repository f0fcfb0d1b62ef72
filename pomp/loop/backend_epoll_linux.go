// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package loop

import (
	"time"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func newBackend() (backend, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "pomp/loop: epoll_create1")
	}
	wfd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, pkgerrors.Wrap(err, "pomp/loop: eventfd")
	}
	b := &epollBackend{epfd: epfd, wakefd: wfd}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wfd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(wfd),
	}); err != nil {
		_ = unix.Close(wfd)
		_ = unix.Close(epfd)
		return nil, pkgerrors.Wrap(err, "pomp/loop: epoll_ctl(wakefd)")
	}
	return b, nil
}

// epollBackend is the Linux event-loop backend: epoll(7) for fd readiness,
// eventfd(2) for a cheap, idempotent cross-thread wakeup.
type epollBackend struct {
	epfd   int
	wakefd int
}

func toEpollEvents(ev Events) uint32 {
	var e uint32
	if ev.Has(In) {
		e |= unix.EPOLLIN
	}
	if ev.Has(Pri) {
		e |= unix.EPOLLPRI
	}
	if ev.Has(Out) {
		e |= unix.EPOLLOUT
	}
	return e
}

func fromEpollEvents(e uint32) Events {
	var ev Events
	if e&unix.EPOLLIN != 0 {
		ev |= In
	}
	if e&unix.EPOLLPRI != 0 {
		ev |= Pri
	}
	if e&unix.EPOLLOUT != 0 {
		ev |= Out
	}
	if e&unix.EPOLLERR != 0 {
		ev |= Err
	}
	if e&unix.EPOLLHUP != 0 || e&unix.EPOLLRDHUP != 0 {
		ev |= Hup
	}
	return ev
}

func (b *epollBackend) add(fd int, ev Events) error {
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: toEpollEvents(ev),
		Fd:     int32(fd),
	})
}

func (b *epollBackend) modify(fd int, ev Events) error {
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
		Events: toEpollEvents(ev),
		Fd:     int32(fd),
	})
}

func (b *epollBackend) remove(fd int) error {
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (b *epollBackend) wait(dst []ready, timeout time.Duration) ([]ready, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	var raw [64]unix.EpollEvent
	n, err := unix.EpollWait(b.epfd, raw[:], ms)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, pkgerrors.Wrap(err, "pomp/loop: epoll_wait")
	}
	for i := 0; i < n; i++ {
		fd := int(raw[i].Fd)
		if fd == b.wakefd {
			b.drainWake()
			continue
		}
		dst = append(dst, ready{fd: fd, events: fromEpollEvents(raw[i].Events)})
	}
	return dst, nil
}

func (b *epollBackend) drainWake() {
	var buf [8]byte
	for {
		_, err := unix.Read(b.wakefd, buf[:])
		if err != nil {
			return
		}
	}
}

func (b *epollBackend) wake() error {
	var buf [8]byte
	buf[7] = 1
	_, err := unix.Write(b.wakefd, buf[:])
	if err != nil && err != unix.EAGAIN {
		return pkgerrors.Wrap(err, "pomp/loop: eventfd write")
	}
	return nil
}

func (b *epollBackend) fd() int { return b.epfd }

func (b *epollBackend) close() error {
	_ = unix.Close(b.wakefd)
	return unix.Close(b.epfd)
}
