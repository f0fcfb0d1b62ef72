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

// newTimerImpl realizes a Timer with timerfd(7): a fd that becomes
// readable on expiry, registered like any other watch; the loop drains
// the 8-byte expiration counter before invoking cb.
func newTimerImpl(l *Loop, cb func()) (timerImpl, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC|unix.TFD_NONBLOCK)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "pomp/loop: timerfd_create")
	}
	t := &linuxTimer{loop: l, fd: fd, cb: cb}
	if err := l.Add(fd, In, t.onReadable); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return t, nil
}

type linuxTimer struct {
	loop *Loop
	fd   int
	cb   func()
}

func (t *linuxTimer) onReadable(fd int, events Events) {
	var buf [8]byte
	_, _ = unix.Read(t.fd, buf[:])
	t.cb()
}

func (t *linuxTimer) arm(first, period time.Duration) error {
	spec := unix.ItimerSpec{
		Value:    unix.NsecToTimespec(first.Nanoseconds()),
		Interval: unix.NsecToTimespec(period.Nanoseconds()),
	}
	if first <= 0 {
		spec.Value = unix.Timespec{}
	}
	return unix.TimerfdSettime(t.fd, 0, &spec, nil)
}

func (t *linuxTimer) close() error {
	_ = t.loop.Remove(t.fd)
	return unix.Close(t.fd)
}
