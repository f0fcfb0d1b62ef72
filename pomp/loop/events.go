// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package loop implements the multi-backend event loop that connections and
// contexts run on: fd registration, a thread-safe wakeup, an idle-callback
// queue drained once per dispatch pass, cross-thread events, and one-shot or
// periodic timers. The backend (epoll, kqueue, or a portable poll fallback)
// is selected at build time by platform.
package loop

// Events is a bit-mask of the readiness conditions a Watch can be
// registered for, and the conditions reported back to its callback.
type Events uint32

const (
	In  Events = 1 << iota // data ready to read
	Pri                    // urgent/out-of-band data
	Out                    // writable without blocking
	Err                    // error condition
	Hup                    // peer hung up
)

// Has reports whether all bits in want are set in e.
func (e Events) Has(want Events) bool { return e&want == want }

func (e Events) String() string {
	s := ""
	add := func(bit Events, name string) {
		if e&bit != 0 {
			if s != "" {
				s += "|"
			}
			s += name
		}
	}
	add(In, "IN")
	add(Pri, "PRI")
	add(Out, "OUT")
	add(Err, "ERR")
	add(Hup, "HUP")
	if s == "" {
		return "NONE"
	}
	return s
}
