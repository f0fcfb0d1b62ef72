// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package conn

// peerCredentials is only implemented for Linux's SO_PEERCRED; other
// platforms use differently-shaped APIs (LOCAL_PEERCRED, getpeereid) not
// wired here.
func peerCredentials(fd int) (pid int32, uid, gid uint32, ok bool) {
	return 0, 0, 0, false
}
