// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package ctx

import (
	"os"

	"golang.org/x/sys/unix"

	pkgerrors "github.com/pkg/errors"

	pomp "github.com/Parrot-Developers/libpomp-go"
)

func toSockaddr(addr *pomp.Addr) (unix.Sockaddr, int, error) {
	switch addr.Kind {
	case "inet":
		var sa unix.SockaddrInet4
		copy(sa.Addr[:], addr.IP.To4())
		sa.Port = addr.Port
		return &sa, unix.AF_INET, nil
	case "inet6":
		var sa unix.SockaddrInet6
		copy(sa.Addr[:], addr.IP.To16())
		sa.Port = addr.Port
		return &sa, unix.AF_INET6, nil
	case "unix":
		name := addr.Path
		if addr.Abstract {
			name = "@" + addr.Path
		}
		return &unix.SockaddrUnix{Name: name}, unix.AF_UNIX, nil
	default:
		return nil, 0, pomp.ErrInvalidArgument
	}
}

func sockaddrToAddr(sa unix.Sockaddr) *pomp.Addr {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make([]byte, 4)
		copy(ip, v.Addr[:])
		return &pomp.Addr{Kind: "inet", IP: ip, Port: v.Port}
	case *unix.SockaddrInet6:
		ip := make([]byte, 16)
		copy(ip, v.Addr[:])
		return &pomp.Addr{Kind: "inet6", IP: ip, Port: v.Port}
	case *unix.SockaddrUnix:
		name := v.Name
		abstract := len(name) > 0 && name[0] == '@'
		if abstract {
			name = name[1:]
		}
		return &pomp.Addr{Kind: "unix", Path: name, Abstract: abstract}
	default:
		return nil
	}
}

// newListener creates, binds and listens a non-blocking socket for addr.
// For Unix sockets it unlinks any stale path first and applies mode if
// non-zero.
func newListener(addr *pomp.Addr, mode os.FileMode) (int, error) {
	sa, family, err := toSockaddr(addr)
	if err != nil {
		return -1, err
	}
	sockType := unix.SOCK_STREAM
	fd, err := unix.Socket(family, sockType|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, pkgerrors.Wrap(err, "pomp/ctx: socket")
	}
	if family != unix.AF_UNIX {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	} else if addr.Path != "" && !addr.Abstract {
		_ = unix.Unlink(addr.Path)
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, pkgerrors.Wrap(err, "pomp/ctx: bind")
	}
	if family == unix.AF_UNIX && addr.Path != "" && !addr.Abstract && mode != 0 {
		_ = os.Chmod(addr.Path, mode)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		_ = unix.Close(fd)
		return -1, pkgerrors.Wrap(err, "pomp/ctx: listen")
	}
	return fd, nil
}

// newDgramSocket creates and binds a non-blocking datagram socket for
// addr.
func newDgramSocket(addr *pomp.Addr) (int, error) {
	sa, family, err := toSockaddr(addr)
	if err != nil {
		return -1, err
	}
	fd, err := unix.Socket(family, unix.SOCK_DGRAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, pkgerrors.Wrap(err, "pomp/ctx: socket")
	}
	if family != unix.AF_UNIX {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	} else if addr.Path != "" && !addr.Abstract {
		_ = unix.Unlink(addr.Path)
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, pkgerrors.Wrap(err, "pomp/ctx: bind")
	}
	return fd, nil
}

// connectNonblock begins a non-blocking connect to addr, returning the
// new fd; connected reports whether the connect completed immediately
// (uncommon, but legal for e.g. loopback).
func connectNonblock(addr *pomp.Addr) (fd int, connected bool, err error) {
	sa, family, err := toSockaddr(addr)
	if err != nil {
		return -1, false, err
	}
	fd, err = unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, false, pkgerrors.Wrap(err, "pomp/ctx: socket")
	}
	err = unix.Connect(fd, sa)
	if err == nil {
		return fd, true, nil
	}
	if err == unix.EINPROGRESS {
		return fd, false, nil
	}
	_ = unix.Close(fd)
	return -1, false, pkgerrors.Wrap(err, "pomp/ctx: connect")
}

// checkConnectError reads SO_ERROR after an EVENT_OUT wakeup on an
// in-progress non-blocking connect.
func checkConnectError(fd int) error {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
}

// acceptNonblock accepts one pending connection on listenFd.
func acceptNonblock(listenFd int) (fd int, peer *pomp.Addr, wouldBlock bool, err error) {
	nfd, sa, aerr := unix.Accept4(listenFd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if aerr == unix.EAGAIN || aerr == unix.EWOULDBLOCK {
		return -1, nil, true, nil
	}
	if aerr != nil {
		return -1, nil, false, aerr
	}
	return nfd, sockaddrToAddr(sa), false, nil
}

// localAddr reads the locally bound address of fd.
func localAddr(fd int) *pomp.Addr {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return nil
	}
	return sockaddrToAddr(sa)
}

func closeRawFd(fd int) { _ = unix.Close(fd) }

func isUnixAddr(addr *pomp.Addr) bool { return addr != nil && addr.Kind == "unix" }
