// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build windows

package pomp

import "syscall"

// dupFd and closeFd on Windows operate on raw handles cast to int, matching
// the upstream library's Windows port which never carries fds across
// sockets (fd passing is a Unix-only feature).
func dupFd(fd int) (int, error) {
	var dup syscall.Handle
	h := syscall.Handle(fd)
	proc, err := syscall.GetCurrentProcess()
	if err != nil {
		return 0, err
	}
	if err := syscall.DuplicateHandle(proc, h, proc, &dup, 0, true, syscall.DUPLICATE_SAME_ACCESS); err != nil {
		return 0, err
	}
	return int(dup), nil
}

func closeFd(fd int) error {
	return syscall.CloseHandle(syscall.Handle(fd))
}
