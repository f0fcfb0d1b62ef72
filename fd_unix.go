// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package pomp

import "golang.org/x/sys/unix"

func dupFd(fd int) (int, error) {
	nfd, err := unix.Dup(fd)
	if err != nil {
		return 0, err
	}
	unix.CloseOnExec(nfd)
	return nfd, nil
}

func closeFd(fd int) error {
	return unix.Close(fd)
}
