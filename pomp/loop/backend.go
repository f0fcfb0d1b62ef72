// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package loop

import "time"

// ready is one fd reported ready by a backend's wait call.
type ready struct {
	fd     int
	events Events
}

// backend is the platform-specific fd multiplexer a Loop drives. Exactly
// one implementation is compiled in per target (epoll on Linux, kqueue on
// BSD/Darwin, a stub that never reports readiness on Windows, a
// poll(2)-based fallback elsewhere); newBackend selects it.
type backend interface {
	add(fd int, ev Events) error
	modify(fd int, ev Events) error
	remove(fd int) error

	// wait blocks up to timeout (negative means forever) and appends every
	// ready fd to dst, returning the extended slice.
	wait(dst []ready, timeout time.Duration) ([]ready, error)

	// wake is safe to call from any goroutine and unblocks a concurrent
	// wait, idempotently: multiple wakes before the next wait collapse to
	// one early return.
	wake() error

	// fd returns a single descriptor the host can itself watch for
	// readability, satisfying the loop's get_fd() contract.
	fd() int

	close() error
}
