// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package conn

import (
	"golang.org/x/sys/unix"

	pomp "github.com/Parrot-Developers/libpomp-go"
)

func setNonblock(fd int) error {
	return unix.SetNonblock(fd, true)
}

func closeFd(fd int) error {
	return unix.Close(fd)
}

func shutdownBoth(fd int) {
	_ = unix.Shutdown(fd, unix.SHUT_RDWR)
}

func applyKeepalive(fd int, cfg KeepaliveConfig) error {
	if !cfg.Enable {
		return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 0)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); err != nil {
		return err
	}
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, tcpKeepIdleOpt, cfg.IdleSeconds)
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, tcpKeepIntvlOpt, cfg.IntervalSeconds)
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, tcpKeepCntOpt, cfg.ProbeCount)
	return nil
}

// maxFdsPerSend bounds how many descriptors ride in a single SCM_RIGHTS
// control message, matching pomp.MaxFDs.
const maxFdsPerSend = pomp.MaxFDs

// sendmsgFds writes data to fd, optionally attaching fds as ancillary
// SCM_RIGHTS data. It returns the number of data bytes accepted by the
// kernel; on EAGAIN it returns (0, false, nil) so the caller can queue a
// retry once the socket becomes writable again.
func sendmsgFds(fd int, data []byte, fds []int) (n int, wouldBlock bool, err error) {
	var oob []byte
	if len(fds) > 0 {
		oob = unix.UnixRights(fds...)
	}
	n, err = unix.SendmsgN(fd, data, oob, nil, 0)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return 0, true, nil
	}
	if err != nil {
		return n, false, err
	}
	return n, false, nil
}

// recvmsgFds reads into buf, returning any file descriptors received via
// SCM_RIGHTS ancillary data.
func recvmsgFds(fd int, buf []byte) (n int, fds []int, wouldBlock bool, err error) {
	oob := make([]byte, unix.CmsgSpace(maxFdsPerSend*4))
	n, oobn, _, _, err := unix.Recvmsg(fd, buf, oob, 0)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return 0, nil, true, nil
	}
	if err != nil {
		return n, nil, false, err
	}
	if oobn > 0 {
		msgs, cerr := unix.ParseSocketControlMessage(oob[:oobn])
		if cerr == nil {
			for _, m := range msgs {
				rights, rerr := unix.ParseUnixRights(&m)
				if rerr == nil {
					fds = append(fds, rights...)
				}
			}
		}
	}
	return n, fds, false, nil
}

