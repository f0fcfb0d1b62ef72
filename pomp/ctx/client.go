// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ctx

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/Parrot-Developers/libpomp-go/pomp/conn"
	"github.com/Parrot-Developers/libpomp-go/pomp/loop"
)

// Connect begins a non-blocking connection attempt. Only valid on a
// client context. A failed attempt is retried after ClientReconnectDelay;
// a later unsolicited disconnect triggers an immediate reconnect attempt.
func (c *Context) Connect() error {
	if c.kind != KindClient {
		return pkgerrors.New("pomp/ctx: Connect is only valid on a client context")
	}
	if err := c.checkNotStarted(); err != nil {
		return err
	}
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
	return c.doConnect()
}

func (c *Context) doConnect() error {
	fd, connected, err := connectNonblock(c.addr)
	if err != nil {
		return c.scheduleClientRetry()
	}
	if c.socketCb != nil {
		c.socketCb(c, fd)
	}
	if connected {
		return c.finishConnect(fd)
	}
	return c.loop.Add(fd, loop.Out, func(fd int, _ loop.Events) { c.onConnectReady(fd) })
}

func (c *Context) onConnectReady(fd int) {
	_ = c.loop.Remove(fd)
	if err := checkConnectError(fd); err != nil {
		closeRawFd(fd)
		_ = c.scheduleClientRetry()
		return
	}
	_ = c.finishConnect(fd)
}

func (c *Context) finishConnect(fd int) error {
	cn, err := connFromConnected(c, fd)
	if err != nil {
		closeRawFd(fd)
		return c.scheduleClientRetry()
	}
	c.mu.Lock()
	c.conns[fd] = cn
	c.mu.Unlock()
	c.dispatch(cn, conn.EventConnected, nil)
	return nil
}

func (c *Context) scheduleClientRetry() error {
	if c.reconnectTimer == nil {
		t, err := c.loop.NewTimer(func() { _ = c.doConnect() })
		if err != nil {
			return err
		}
		c.reconnectTimer = t
	}
	return c.reconnectTimer.Set(ClientReconnectDelay)
}
