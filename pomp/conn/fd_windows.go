// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build windows

package conn

import (
	"syscall"

	pkgerrors "github.com/pkg/errors"
)

// Windows support is a stub: fd passing over Unix-domain sockets has no
// Windows equivalent, and non-blocking mode/keepalive tuning would need
// the winsock API instead of the POSIX one used here. Only enough is
// wired for the package to build; Send/onReadable will return errors at
// runtime on this platform.

func setNonblock(fd int) error { return nil }

func closeFd(fd int) error { return syscall.Close(syscall.Handle(fd)) }

func shutdownBoth(fd int) {}

func applyKeepalive(fd int, cfg KeepaliveConfig) error { return nil }

var errNoFdPassing = pkgerrors.New("pomp/conn: fd passing is not supported on this platform")

func sendmsgFds(fd int, data []byte, fds []int) (n int, wouldBlock bool, err error) {
	if len(fds) > 0 {
		return 0, false, errNoFdPassing
	}
	n, err = syscall.Write(syscall.Handle(fd), data)
	return n, false, err
}

func recvmsgFds(fd int, buf []byte) (n int, fds []int, wouldBlock bool, err error) {
	n, err = syscall.Read(syscall.Handle(fd), buf)
	return n, nil, false, err
}
