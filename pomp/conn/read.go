// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"github.com/Parrot-Developers/libpomp-go/pomp/loop"
)

// onEvent is the single Watch callback registered with the loop for this
// connection's fd; it fans readiness out to the read and write paths.
func (c *Connection) onEvent(fd int, events loop.Events) {
	if events.Has(loop.Err) || events.Has(loop.Hup) {
		_ = c.Disconnect()
		return
	}
	if events.Has(loop.Out) {
		c.onWritable()
	}
	if events.Has(loop.In) {
		c.drainReadable()
	}
}

// drainReadable reads everything currently available on the socket
// without blocking, feeding it through the framer (or RawCallback in raw
// mode) until EAGAIN, EOF, or the read is suspended mid-drain.
func (c *Connection) drainReadable() {
	for !c.readSuspended {
		buf := make([]byte, c.readBufSize)
		n, fds, wouldBlock, err := recvmsgFds(c.fd, buf)
		if wouldBlock {
			return
		}
		if err != nil {
			_ = c.Disconnect()
			return
		}
		if n == 0 {
			// Orderly shutdown by the peer.
			_ = c.Disconnect()
			return
		}
		c.rxFDs = append(c.rxFDs, fds...)
		c.handleData(buf[:n])
		if n < len(buf) {
			// Short read: the socket is drained for now.
			return
		}
	}
}

func (c *Connection) handleData(data []byte) {
	if c.isRaw {
		if c.rawCb != nil {
			c.rawCb(c, data)
		}
		c.rxFDs = nil
		return
	}

	rest := data
	for len(rest) > 0 {
		n, msg, err := c.framer.Decode(rest)
		if err != nil {
			_ = c.Disconnect()
			return
		}
		rest = rest[n:]
		if msg == nil {
			break
		}
		if len(c.rxFDs) > 0 {
			if err := msg.AssignFDs(c.rxFDs); err != nil {
				_ = c.Disconnect()
				return
			}
			c.rxFDs = nil
		}
		if c.eventCb != nil {
			c.eventCb(c, EventMsg, msg)
		} else {
			c.framer.ReleaseMsg(msg)
		}
	}
}
