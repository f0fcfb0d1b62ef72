// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package conn

import "golang.org/x/sys/unix"

const (
	tcpKeepIdleOpt  = unix.TCP_KEEPIDLE
	tcpKeepIntvlOpt = unix.TCP_KEEPINTVL
	tcpKeepCntOpt   = unix.TCP_KEEPCNT
)
