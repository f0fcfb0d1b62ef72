// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package loop

import "time"

// timerImpl is the platform realization a Timer drives: timerfd on Linux,
// time.AfterFunc handing expiry to the loop's idle queue everywhere else.
// Expiry must
// always be delivered through the owning Loop's dispatch, never directly
// from the backing goroutine/signal, so that timer callbacks run on the
// loop's thread like every other mutation.
type timerImpl interface {
	arm(first, period time.Duration) error // first<=0 disarms
	close() error
}

// Timer is a one-shot or periodic timer bound to a Loop; expiry invokes
// its callback on the loop's owning goroutine. Periodic timers that miss
// ticks (because the loop was busy) coalesce into a single delivery —
// there is no catch-up.
type Timer struct {
	loop *Loop
	cb   func()
	impl timerImpl
}

// NewTimer creates a timer bound to l; it is disarmed until Set or
// SetPeriodic is called.
func (l *Loop) NewTimer(cb func()) (*Timer, error) {
	t := &Timer{loop: l, cb: cb}
	impl, err := newTimerImpl(l, func() { cb() })
	if err != nil {
		return nil, err
	}
	t.impl = impl
	return t, nil
}

// Set arms a one-shot timer firing after delay.
func (t *Timer) Set(delay time.Duration) error {
	return t.impl.arm(delay, 0)
}

// SetPeriodic arms a timer firing first after delay, then every period.
func (t *Timer) SetPeriodic(delay, period time.Duration) error {
	return t.impl.arm(delay, period)
}

// Clear disarms the timer; guarantees no further callback fires.
func (t *Timer) Clear() error {
	return t.impl.arm(0, 0)
}

// Close releases the timer's backend resources. The timer must not be
// used afterwards.
func (t *Timer) Close() error {
	return t.impl.close()
}
