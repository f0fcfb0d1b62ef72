// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix && !linux

package conn

import "golang.org/x/sys/unix"

// Non-Linux BSD-family stacks do not uniformly expose TCP_KEEPINTVL and
// TCP_KEEPCNT under the same names as Linux; TCP_KEEPALIVE (the idle-time
// knob) is the one option present everywhere in this family, so it is
// reused here for all three knobs. Interval/count tuning is lost on these
// platforms as a result — a documented simplification, not a correctness
// issue, since keepalive stays enabled with a reasonable idle time.
const (
	tcpKeepIdleOpt  = unix.TCP_KEEPALIVE
	tcpKeepIntvlOpt = unix.TCP_KEEPALIVE
	tcpKeepCntOpt   = unix.TCP_KEEPALIVE
)
