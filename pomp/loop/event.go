// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package loop

import (
	"sync"
)

// Event is a cross-thread signal/clear primitive: any goroutine may
// Signal it, and — once attached to a Loop — its callback fires once on
// the loop's owning goroutine per pending signal. Multiple signals before
// the callback runs collapse into a single delivery.
type Event struct {
	mu       sync.Mutex
	loop     *Loop
	cb       func()
	pending  bool
	attached bool
}

// NewEvent creates a detached event.
func NewEvent() *Event {
	return &Event{}
}

// Attach binds the event to l, so that a later Signal delivers cb on l's
// owning goroutine. Fails with ErrBusy if already attached.
func (e *Event) Attach(l *Loop, cb func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.attached {
		return ErrBusy
	}
	e.loop = l
	e.cb = cb
	e.attached = true
	return nil
}

// Detach unbinds the event from its loop. Any signal still pending is
// discarded.
func (e *Event) Detach() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attached = false
	e.loop = nil
	e.cb = nil
	e.pending = false
	return nil
}

// IsAttached reports whether the event is attached to l, or to any loop
// when l is nil.
func (e *Event) IsAttached(l *Loop) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.attached {
		return false
	}
	return l == nil || e.loop == l
}

// Signal marks the event pending and, if attached, schedules delivery on
// the owning loop's idle queue. Safe to call from any goroutine. A second
// Signal while one is already pending is a no-op (idempotent collapse).
func (e *Event) Signal() error {
	e.mu.Lock()
	if e.pending {
		e.mu.Unlock()
		return nil
	}
	e.pending = true
	l := e.loop
	attached := e.attached
	e.mu.Unlock()

	if !attached || l == nil {
		return nil
	}
	return l.AddIdle(func() {
		e.mu.Lock()
		fire := e.pending
		if fire {
			e.pending = false
		}
		cb := e.cb
		e.mu.Unlock()
		if fire && cb != nil {
			cb()
		}
	})
}

// Clear drops any pending signal; guarantees the callback does not fire
// for it.
func (e *Event) Clear() error {
	e.mu.Lock()
	e.pending = false
	e.mu.Unlock()
	return nil
}

// Destroy refuses while the event remains attached; callers must Detach
// first.
func (e *Event) Destroy() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.attached {
		return ErrBusy
	}
	return nil
}
