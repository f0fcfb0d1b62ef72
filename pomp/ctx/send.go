// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ctx

import (
	pkgerrors "github.com/pkg/errors"

	pomp "github.com/Parrot-Developers/libpomp-go"
	"github.com/Parrot-Developers/libpomp-go/pomp/conn"
)

// SendMsg broadcasts msg to every connection on a server context, sends it
// on the single connection of a client context, or is rejected on a dgram
// context (use SendMsgTo there).
func (c *Context) SendMsg(msg *pomp.Message) error {
	switch c.kind {
	case KindServer:
		c.mu.Lock()
		conns := make([]*conn.Connection, 0, len(c.conns))
		for _, cn := range c.conns {
			conns = append(conns, cn)
		}
		c.mu.Unlock()
		var firstErr error
		for _, cn := range conns {
			if err := cn.Send(msg); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	case KindClient:
		cn, err := c.soleConn()
		if err != nil {
			return err
		}
		return cn.Send(msg)
	case KindDgram:
		return pkgerrors.Wrap(pomp.ErrInvalidArgument, "pomp/ctx: SendMsg is rejected on a dgram context; use SendMsgTo")
	default:
		return pomp.ErrInvalidArgument
	}
}

// SendMsgTo sends msg to a specific peer address. Only valid on a dgram
// context; bypasses the connection's write queue since UDP sends are
// fire-and-forget.
func (c *Context) SendMsgTo(msg *pomp.Message, to *pomp.Addr) error {
	if c.kind != KindDgram {
		return pkgerrors.Wrap(pomp.ErrInvalidArgument, "pomp/ctx: SendMsgTo is only valid on a dgram context")
	}
	cn, err := c.dgramConn()
	if err != nil {
		return err
	}
	data, err := msg.Serialize()
	if err != nil {
		return err
	}
	return sendto(cn.FD(), data, to)
}

func (c *Context) soleConn() (*conn.Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cn := range c.conns {
		return cn, nil
	}
	return nil, pomp.ErrNotConnected
}

// Send builds a new message with id via fn, then calls SendMsg. The
// scratch message is reused across calls (reinitialized each time) to
// avoid repeated allocation on hot send paths.
func (c *Context) Send(id uint32, fn func(enc *pomp.Encoder) error) error {
	if err := c.scratchMsg.Init(id); err != nil {
		return err
	}
	enc := pomp.NewEncoder()
	if err := enc.Init(c.scratchMsg); err != nil {
		return err
	}
	if fn != nil {
		if err := fn(enc); err != nil {
			return err
		}
	}
	if err := c.scratchMsg.Finish(); err != nil {
		return err
	}
	return c.SendMsg(c.scratchMsg)
}
