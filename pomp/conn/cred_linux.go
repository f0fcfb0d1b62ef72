// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package conn

import "golang.org/x/sys/unix"

// peerCredentials reads SO_PEERCRED for a Unix-domain socket peer.
func peerCredentials(fd int) (pid int32, uid, gid uint32, ok bool) {
	cred, err := unix.GetsockoptUcred(fd, unix.SOL_SOCKET, unix.SO_PEERCRED)
	if err != nil {
		return 0, 0, 0, false
	}
	return cred.Pid, cred.Uid, cred.Gid, true
}
