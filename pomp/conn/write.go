// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	pomp "github.com/Parrot-Developers/libpomp-go"
	"github.com/Parrot-Developers/libpomp-go/pomp/loop"
)

// Send serializes and enqueues a sealed Message. If the write queue is
// currently empty, Send attempts the socket write immediately on the
// calling goroutine; otherwise (or on EAGAIN) it queues the data and the
// connection subscribes to EVENT_OUT to drain it as the socket permits.
// Safe to call from any goroutine.
func (c *Connection) Send(msg *pomp.Message) error {
	if !msg.Finished() {
		return ErrNotFinished
	}
	data, err := msg.Serialize()
	if err != nil {
		return err
	}
	fds, err := msg.FDs()
	if err != nil {
		return err
	}
	return c.enqueue(data, fds)
}

// SendRaw enqueues data verbatim, bypassing the framer; used in raw mode.
func (c *Connection) SendRaw(data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	return c.enqueue(cp, nil)
}

func (c *Connection) enqueue(data []byte, fds []int) error {
	if c.shutdownFlag {
		return ErrNotConnected
	}
	e := &writeEntry{data: data, fds: fds, cb: c.sendCb}

	c.mu.Lock()
	if len(c.writeQueue) > 0 {
		c.writeQueue = append(c.writeQueue, e)
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.attemptSend(e)
	return nil
}

// attemptSend tries to push e straight to the kernel. A full or partial
// write completes or requeues e; EAGAIN requeues it at the front and
// subscribes to EVENT_OUT.
func (c *Connection) attemptSend(e *writeEntry) {
	for e.off < len(e.data) {
		var fds []int
		if !e.fdsSent {
			fds = e.fds
		}
		n, wouldBlock, err := sendmsgFds(c.fd, e.data[e.off:], fds)
		if wouldBlock {
			c.queueForRetry(e)
			return
		}
		if err != nil {
			c.notify(e, false)
			_ = c.Disconnect()
			return
		}
		if n > 0 {
			e.fdsSent = true
			e.off += n
		}
	}
	c.notify(e, true)
}

func (c *Connection) queueForRetry(e *writeEntry) {
	c.mu.Lock()
	c.writeQueue = append([]*writeEntry{e}, c.writeQueue...)
	needSub := !c.subscribedOut
	c.subscribedOut = true
	c.mu.Unlock()
	if needSub {
		_ = c.loop.Update2(c.fd, loop.Out, 0)
	}
}

// onWritable drains the front of the write queue as far as the socket
// allows, called on EVENT_OUT readiness.
func (c *Connection) onWritable() {
	for {
		c.mu.Lock()
		if len(c.writeQueue) == 0 {
			wasSubscribed := c.subscribedOut
			c.subscribedOut = false
			c.mu.Unlock()
			if wasSubscribed {
				_ = c.loop.Update2(c.fd, 0, loop.Out)
			}
			return
		}
		e := c.writeQueue[0]
		c.mu.Unlock()

		for e.off < len(e.data) {
			var fds []int
			if !e.fdsSent {
				fds = e.fds
			}
			n, wouldBlock, err := sendmsgFds(c.fd, e.data[e.off:], fds)
			if wouldBlock {
				return
			}
			if err != nil {
				c.abortQueue()
				_ = c.Disconnect()
				return
			}
			if n > 0 {
				e.fdsSent = true
				e.off += n
			}
		}

		c.mu.Lock()
		c.writeQueue = c.writeQueue[1:]
		c.mu.Unlock()
		c.notify(e, true)
	}
}

func (c *Connection) notify(e *writeEntry, ok bool) {
	if e.cb == nil {
		return
	}
	c.mu.Lock()
	empty := len(c.writeQueue) == 0
	c.mu.Unlock()
	status := SendStatus(0)
	if ok {
		status |= SendOK
	} else {
		status |= SendAborted
	}
	if empty {
		status |= SendQueueEmpty
	}
	e.cb(c, status)
}

func (c *Connection) abortQueue() {
	c.mu.Lock()
	pending := c.writeQueue
	c.writeQueue = nil
	c.mu.Unlock()
	for _, e := range pending {
		if e.cb != nil {
			e.cb(c, SendAborted|SendQueueEmpty)
		}
	}
}

// PendingWrites reports how many entries remain queued, for tests and for
// backpressure-aware callers deciding whether to keep sending.
func (c *Connection) PendingWrites() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writeQueue)
}
