// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package loop

import (
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// Sentinel errors returned by Loop operations.
var (
	ErrFdRegistered    = pkgerrors.New("pomp/loop: fd already registered")
	ErrFdNotRegistered = pkgerrors.New("pomp/loop: fd not registered")
	ErrTimedOut        = pkgerrors.New("pomp/loop: timed out")
	ErrBusy            = pkgerrors.New("pomp/loop: busy")
	ErrCookieNotFound  = pkgerrors.New("pomp/loop: idle cookie not found")
)

// Callback is invoked on fd readiness, on the loop's owning goroutine.
type Callback func(fd int, events Events)

// Watch is the registration for one fd: exactly one per fd, per the loop
// invariant — add creates it, update mutates it in place, remove deletes
// it.
type Watch struct {
	Fd     int
	Events Events
	Cb     Callback
}

type idleEntry struct {
	cb      func()
	cookie  any
	removed bool
}

// Loop is the event loop: fd readiness dispatch, a zero-timeout idle
// queue drained once per pass, and a thread-safe wakeup. Every method
// other than Wakeup, AddIdle, AddIdleCookie and RemoveIdleCookie must be
// called from the loop's owning goroutine (the
// one that calls WaitAndProcess/ProcessFD); this is not enforced at
// runtime, only documented (the original assumes single-threaded callers
// rather than paying for a runtime check on every call).
type Loop struct {
	bk backend

	watches map[int]*Watch

	mu   sync.Mutex // guards idle only; idle_add/remove may be cross-thread
	idle []*idleEntry

	readyBuf []ready

	wd *Watchdog
}

// New creates a loop using the platform's native backend (epoll, kqueue,
// or the portable poll fallback).
func New() (*Loop, error) {
	bk, err := newBackend()
	if err != nil {
		return nil, err
	}
	return &Loop{bk: bk, watches: map[int]*Watch{}}, nil
}

// GetFD returns a single fd/handle the host can itself monitor for
// readability, so pomp's loop can be embedded in a larger event loop.
func (l *Loop) GetFD() int { return l.bk.fd() }

// HasFD reports whether fd currently has a watch registered.
func (l *Loop) HasFD(fd int) bool {
	_, ok := l.watches[fd]
	return ok
}

// Add registers a new watch for fd. Fails with ErrFdRegistered if fd
// already has one.
func (l *Loop) Add(fd int, events Events, cb Callback) error {
	if _, ok := l.watches[fd]; ok {
		return ErrFdRegistered
	}
	if err := l.bk.add(fd, events); err != nil {
		return pkgerrors.Wrap(err, "pomp/loop: add")
	}
	l.watches[fd] = &Watch{Fd: fd, Events: events, Cb: cb}
	return nil
}

// Update replaces the event mask of an existing watch.
func (l *Loop) Update(fd int, events Events) error {
	w, ok := l.watches[fd]
	if !ok {
		return ErrFdNotRegistered
	}
	if err := l.bk.modify(fd, events); err != nil {
		return pkgerrors.Wrap(err, "pomp/loop: update")
	}
	w.Events = events
	return nil
}

// Update2 adds addMask to and clears removeMask from an existing watch's
// event mask.
func (l *Loop) Update2(fd int, addMask, removeMask Events) error {
	w, ok := l.watches[fd]
	if !ok {
		return ErrFdNotRegistered
	}
	return l.Update(fd, (w.Events|addMask)&^removeMask)
}

// Remove deletes fd's watch.
func (l *Loop) Remove(fd int) error {
	if _, ok := l.watches[fd]; !ok {
		return ErrFdNotRegistered
	}
	delete(l.watches, fd)
	return l.bk.remove(fd)
}

// Wakeup unblocks a concurrent WaitAndProcess call. Safe to call from any
// goroutine, including a signal handler's delivery goroutine; idempotent
// while a wake is already pending.
func (l *Loop) Wakeup() error {
	return l.bk.wake()
}

// AddIdle appends a zero-timeout callback, fired on the next dispatch pass
// that begins after this call. Safe to call from any goroutine.
func (l *Loop) AddIdle(cb func()) error {
	return l.AddIdleCookie(cb, nil)
}

// AddIdleCookie is AddIdle with a cookie that RemoveIdleCookie can later
// match against.
func (l *Loop) AddIdleCookie(cb func(), cookie any) error {
	l.mu.Lock()
	l.idle = append(l.idle, &idleEntry{cb: cb, cookie: cookie})
	l.mu.Unlock()
	return l.Wakeup()
}

// RemoveIdleCookie marks every pending entry carrying cookie as removed;
// removed entries remain queued (so FIFO slots are preserved) but never
// fire. Returns ErrCookieNotFound if none matched.
func (l *Loop) RemoveIdleCookie(cookie any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	found := false
	for _, e := range l.idle {
		if !e.removed && e.cookie == cookie {
			e.removed = true
			found = true
		}
	}
	if !found {
		return ErrCookieNotFound
	}
	return nil
}

// pendingIdle reports whether any non-removed idle entry remains, used by
// Destroy's busy check.
func (l *Loop) pendingIdle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.idle {
		if !e.removed {
			return true
		}
	}
	return false
}

// runIdlePass drains exactly the idle entries present when it started;
// entries appended by a firing callback are left for the next pass, so a
// callback that keeps re-queueing itself can't starve fd dispatch.
func (l *Loop) runIdlePass() {
	l.mu.Lock()
	n := len(l.idle)
	batch := l.idle[:n:n]
	l.mu.Unlock()

	for _, e := range batch {
		if !e.removed && e.cb != nil {
			e.cb()
		}
	}

	l.mu.Lock()
	l.idle = l.idle[n:]
	l.mu.Unlock()
}

func (l *Loop) dispatch(evs []ready) {
	for _, r := range evs {
		w, ok := l.watches[r.fd]
		if !ok || w.Cb == nil {
			continue
		}
		w.Cb(r.fd, r.events)
	}
}

// ProcessFD performs one non-blocking dispatch pass: poll ready fds with a
// zero timeout, dispatch them, then run one idle pass. Never suspends.
func (l *Loop) ProcessFD() error {
	if err := l.runPass(0); err != nil && err != ErrTimedOut {
		return err
	}
	return nil
}

// WaitAndProcess blocks up to timeout (negative means forever) for at
// least one fd event, dispatches it, then runs one idle pass. Returns
// ErrTimedOut if timeout elapsed with no event.
func (l *Loop) WaitAndProcess(timeout time.Duration) error {
	return l.runPass(timeout)
}

func (l *Loop) runPass(timeout time.Duration) error {
	if l.wd != nil {
		l.wd.markEnter()
	}
	l.readyBuf = l.readyBuf[:0]
	evs, err := l.bk.wait(l.readyBuf, timeout)
	if err != nil {
		return err
	}
	l.readyBuf = evs
	l.dispatch(evs)
	l.runIdlePass()
	if len(evs) == 0 && timeout >= 0 {
		return ErrTimedOut
	}
	return nil
}

// Run drives WaitAndProcess in a loop until ctxDone is closed.
func (l *Loop) Run(ctxDone <-chan struct{}) error {
	for {
		select {
		case <-ctxDone:
			return nil
		default:
		}
		if err := l.WaitAndProcess(-1); err != nil && err != ErrTimedOut {
			return err
		}
	}
}

// Destroy releases the backend. Refuses while idle entries remain pending,
// to avoid silently dropping deferred work, returning ErrBusy.
func (l *Loop) Destroy() error {
	if l.pendingIdle() {
		return ErrBusy
	}
	return l.bk.close()
}
