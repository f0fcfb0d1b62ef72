// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Addr is a parsed pomp socket address, one of three textual forms:
// "inet:<host>:<port>", "inet6:<host>:<port>", "unix:<path>" or
// "unix:@<name>" for the Linux abstract namespace. It implements
// net.Addr.
type Addr struct {
	Kind     string // "inet", "inet6" or "unix"
	IP       net.IP
	Port     int
	Path     string // unix path, or the bare name for an abstract address
	Abstract bool
}

// Network implements net.Addr.
func (a *Addr) Network() string {
	switch a.Kind {
	case "unix":
		return "unix"
	default:
		return "tcp"
	}
}

// String renders a back in its canonical textual form, accepted by
// ParseAddr.
func (a *Addr) String() string {
	switch a.Kind {
	case "inet":
		return fmt.Sprintf("inet:%s:%d", a.IP.String(), a.Port)
	case "inet6":
		return fmt.Sprintf("inet6:%s:%d", a.IP.String(), a.Port)
	case "unix":
		if a.Abstract {
			return "unix:@" + a.Path
		}
		return "unix:" + a.Path
	default:
		return fmt.Sprintf("addr:kind:%s", a.Kind)
	}
}

// IsUnix reports whether a names a Unix domain socket.
func (a *Addr) IsUnix() bool { return a.Kind == "unix" }

// ParseAddr parses one of the three textual address forms pomp accepts.
// For "inet"/"inet6" the host may be a numeric address or a resolvable
// hostname (resolution goes through net.ResolveTCPAddr; the real libpomp
// only ever accepted numeric hosts, AI_NUMERICHOST).
func ParseAddr(s string) (*Addr, error) {
	switch {
	case strings.HasPrefix(s, "inet:"):
		return parseInetAddr(s[len("inet:"):], "inet", "tcp4")
	case strings.HasPrefix(s, "inet6:"):
		return parseInetAddr(s[len("inet6:"):], "inet6", "tcp6")
	case strings.HasPrefix(s, "unix:"):
		return parseUnixAddr(s[len("unix:"):])
	default:
		return nil, pkgerrors.Wrapf(ErrInvalidArgument, "pomp: unrecognized address %q", s)
	}
}

func parseInetAddr(hostport, kind, resolveNet string) (*Addr, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return nil, pkgerrors.Wrapf(ErrInvalidArgument, "pomp: parse address %q: %s", hostport, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, pkgerrors.Wrapf(ErrInvalidArgument, "pomp: parse port %q", portStr)
	}
	tcpAddr, err := net.ResolveTCPAddr(resolveNet, net.JoinHostPort(host, portStr))
	if err != nil {
		return nil, pkgerrors.Wrapf(ErrInvalidArgument, "pomp: resolve %q: %s", hostport, err)
	}
	return &Addr{Kind: kind, IP: tcpAddr.IP, Port: port}, nil
}

func parseUnixAddr(rest string) (*Addr, error) {
	if rest == "" {
		return nil, pkgerrors.Wrap(ErrInvalidArgument, "pomp: empty unix address")
	}
	if rest[0] == '@' {
		return &Addr{Kind: "unix", Path: rest[1:], Abstract: true}, nil
	}
	return &Addr{Kind: "unix", Path: rest}, nil
}

// UnixAddr returns the net.UnixAddr form of a, suitable for use with
// net.DialUnix/net.ListenUnix. On Linux an abstract address is encoded
// with the conventional leading NUL (as "@name" -> "\x00name").
func (a *Addr) UnixAddr() (*net.UnixAddr, error) {
	if a.Kind != "unix" {
		return nil, ErrInvalidArgument
	}
	path := a.Path
	if a.Abstract {
		path = "@" + path
	}
	return &net.UnixAddr{Name: path, Net: "unix"}, nil
}

// TCPAddr returns the net.TCPAddr form of a.
func (a *Addr) TCPAddr() (*net.TCPAddr, error) {
	if a.Kind != "inet" && a.Kind != "inet6" {
		return nil, ErrInvalidArgument
	}
	return &net.TCPAddr{IP: a.IP, Port: a.Port}, nil
}
