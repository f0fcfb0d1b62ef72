// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package loop

import (
	"time"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func newBackend() (backend, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "pomp/loop: kqueue")
	}
	unix.CloseOnExec(kq)
	r, w, err := pipe2CloExecNonblock()
	if err != nil {
		_ = unix.Close(kq)
		return nil, pkgerrors.Wrap(err, "pomp/loop: wake pipe")
	}
	b := &kqueueBackend{kq: kq, wakeR: r, wakeW: w, watched: map[int]Events{}}
	if err := b.add(r, In); err != nil {
		_ = unix.Close(r)
		_ = unix.Close(w)
		_ = unix.Close(kq)
		return nil, pkgerrors.Wrap(err, "pomp/loop: watch wake pipe")
	}
	return b, nil
}

func pipe2CloExecNonblock() (r, w int, err error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return 0, 0, err
	}
	return fds[0], fds[1], nil
}

// kqueueBackend is the BSD/Darwin event-loop backend: kqueue(2) for fd
// readiness, a self-pipe for a portable cross-thread wakeup (kqueue has no
// eventfd equivalent).
type kqueueBackend struct {
	kq           int
	wakeR, wakeW int
	watched      map[int]Events
}

func kqueueFilters(ev Events) (read, write bool) {
	return ev.Has(In) || ev.Has(Pri), ev.Has(Out)
}

func (b *kqueueBackend) applyChanges(fd int, old, new Events) error {
	oldR, oldW := kqueueFilters(old)
	newR, newW := kqueueFilters(new)

	var changes []unix.Kevent_t
	addChange := func(filter int16, flags uint16) {
		var kev unix.Kevent_t
		kev.Ident = uint64(fd)
		kev.Filter = filter
		kev.Flags = flags
		changes = append(changes, kev)
	}
	if newR && !oldR {
		addChange(unix.EVFILT_READ, unix.EV_ADD|unix.EV_ENABLE)
	} else if !newR && oldR {
		addChange(unix.EVFILT_READ, unix.EV_DELETE)
	}
	if newW && !oldW {
		addChange(unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_ENABLE)
	} else if !newW && oldW {
		addChange(unix.EVFILT_WRITE, unix.EV_DELETE)
	}
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(b.kq, changes, nil, nil)
	return err
}

func (b *kqueueBackend) add(fd int, ev Events) error {
	if err := b.applyChanges(fd, 0, ev); err != nil {
		return err
	}
	b.watched[fd] = ev
	return nil
}

func (b *kqueueBackend) modify(fd int, ev Events) error {
	old := b.watched[fd]
	if err := b.applyChanges(fd, old, ev); err != nil {
		return err
	}
	b.watched[fd] = ev
	return nil
}

func (b *kqueueBackend) remove(fd int) error {
	old, ok := b.watched[fd]
	if !ok {
		return nil
	}
	delete(b.watched, fd)
	return b.applyChanges(fd, old, 0)
}

func (b *kqueueBackend) wait(dst []ready, timeout time.Duration) ([]ready, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}
	var raw [64]unix.Kevent_t
	n, err := unix.Kevent(b.kq, nil, raw[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, pkgerrors.Wrap(err, "pomp/loop: kevent wait")
	}

	seen := map[int]Events{}
	for i := 0; i < n; i++ {
		fd := int(raw[i].Ident)
		if fd == b.wakeR {
			b.drainWake()
			continue
		}
		var ev Events
		switch int16(raw[i].Filter) {
		case unix.EVFILT_READ:
			ev = In
		case unix.EVFILT_WRITE:
			ev = Out
		}
		if raw[i].Flags&unix.EV_EOF != 0 {
			ev |= Hup
		}
		if raw[i].Flags&unix.EV_ERROR != 0 {
			ev |= Err
		}
		seen[fd] |= ev
	}
	for fd, ev := range seen {
		dst = append(dst, ready{fd: fd, events: ev})
	}
	return dst, nil
}

func (b *kqueueBackend) drainWake() {
	var buf [64]byte
	for {
		_, err := unix.Read(b.wakeR, buf[:])
		if err != nil {
			return
		}
	}
}

func (b *kqueueBackend) wake() error {
	_, err := unix.Write(b.wakeW, []byte{1})
	if err != nil && err != unix.EAGAIN {
		return pkgerrors.Wrap(err, "pomp/loop: wake pipe write")
	}
	return nil
}

func (b *kqueueBackend) fd() int { return b.kq }

func (b *kqueueBackend) close() error {
	_ = unix.Close(b.wakeR)
	_ = unix.Close(b.wakeW)
	return unix.Close(b.kq)
}
