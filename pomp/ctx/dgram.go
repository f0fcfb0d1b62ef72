// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ctx

import (
	pkgerrors "github.com/pkg/errors"

	pomp "github.com/Parrot-Developers/libpomp-go"
	"github.com/Parrot-Developers/libpomp-go/pomp/conn"
)

// Bind creates and binds the datagram socket. Only valid on a dgram
// context.
func (c *Context) Bind() error {
	if c.kind != KindDgram {
		return pkgerrors.New("pomp/ctx: Bind is only valid on a dgram context")
	}
	if err := c.checkNotStarted(); err != nil {
		return err
	}
	fd, err := newDgramSocket(c.addr)
	if err != nil {
		return err
	}
	if c.socketCb != nil {
		c.socketCb(c, fd)
	}
	cn, err := connFromDgram(c, fd)
	if err != nil {
		closeRawFd(fd)
		return err
	}
	c.mu.Lock()
	c.started = true
	c.conns[fd] = cn
	c.mu.Unlock()
	c.dispatch(cn, conn.EventConnected, nil)
	return nil
}

// dgramConn returns the single connection wrapping the bound dgram
// socket, once Bind has run.
func (c *Context) dgramConn() (*conn.Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cn := range c.conns {
		return cn, nil
	}
	return nil, pomp.ErrNotConnected
}
