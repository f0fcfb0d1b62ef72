// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ctx

import (
	pomp "github.com/Parrot-Developers/libpomp-go"
	"github.com/Parrot-Developers/libpomp-go/pomp/conn"
)

// connFromAccepted wraps a just-accepted stream fd in a Connection
// carrying this context's options.
func connFromAccepted(c *Context, fd int, peer *pomp.Addr) (*conn.Connection, error) {
	local := localAddr(fd)
	return conn.New(c.loop, fd, false, isUnixAddr(c.addr), local, peer, c.connOptions()...)
}

// connFromConnected wraps a freshly connect()'d stream fd.
func connFromConnected(c *Context, fd int) (*conn.Connection, error) {
	local := localAddr(fd)
	return conn.New(c.loop, fd, false, isUnixAddr(c.addr), local, c.addr, c.connOptions()...)
}

// connFromDgram wraps a bound dgram fd.
func connFromDgram(c *Context, fd int) (*conn.Connection, error) {
	local := localAddr(fd)
	return conn.New(c.loop, fd, true, isUnixAddr(c.addr), local, nil, c.connOptions()...)
}
