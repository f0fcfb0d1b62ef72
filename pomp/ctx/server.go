// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ctx

import (
	"golang.org/x/sys/unix"

	pkgerrors "github.com/pkg/errors"

	"github.com/Parrot-Developers/libpomp-go/pomp/conn"
	"github.com/Parrot-Developers/libpomp-go/pomp/loop"
)

// Listen creates the listening socket, binds it (unlinking a stale Unix
// path first, applying the configured file mode), and starts accepting.
// Only valid on a server context; fails if already started.
func (c *Context) Listen() error {
	if c.kind != KindServer {
		return pkgerrors.New("pomp/ctx: Listen is only valid on a server context")
	}
	if err := c.checkNotStarted(); err != nil {
		return err
	}
	return c.doListen()
}

func (c *Context) doListen() error {
	fd, err := newListener(c.addr, c.unixMode)
	if err != nil {
		if pkgerrors.Cause(err) == unix.EADDRNOTAVAIL {
			return c.scheduleServerRetry()
		}
		return err
	}
	if c.socketCb != nil {
		c.socketCb(c, fd)
	}
	c.mu.Lock()
	c.started = true
	c.listenFd = fd
	c.mu.Unlock()
	return c.loop.Add(fd, loop.In, c.onAcceptable)
}

func (c *Context) scheduleServerRetry() error {
	if c.reconnectTimer == nil {
		t, err := c.loop.NewTimer(func() { _ = c.doListen() })
		if err != nil {
			return err
		}
		c.reconnectTimer = t
	}
	return c.reconnectTimer.Set(ServerReconnectDelay)
}

func (c *Context) onAcceptable(fd int, events loop.Events) {
	for {
		nfd, peer, wouldBlock, err := acceptNonblock(fd)
		if wouldBlock {
			return
		}
		if err != nil {
			// Log-worthy but non-fatal: keep accepting.
			continue
		}

		c.mu.Lock()
		full := len(c.conns) >= c.maxConn
		c.mu.Unlock()
		if full {
			closeRawFd(nfd)
			continue
		}

		cn, err := connFromAccepted(c, nfd, peer)
		if err != nil {
			closeRawFd(nfd)
			continue
		}
		c.mu.Lock()
		c.conns[nfd] = cn
		c.mu.Unlock()
		c.dispatch(cn, conn.EventConnected, nil)
	}
}
