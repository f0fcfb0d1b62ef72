// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ctx implements the three connection-oriented entry points built
// on top of pomp/conn and pomp/loop: a listening server that accepts and
// broadcasts to many peers, a reconnecting client with exactly one
// connection, and a bound datagram endpoint. All three are unified by a
// single event callback signature.
package ctx

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	pomp "github.com/Parrot-Developers/libpomp-go"
	"github.com/Parrot-Developers/libpomp-go/pomp/conn"
	"github.com/Parrot-Developers/libpomp-go/pomp/loop"
)

// Kind distinguishes the three Context variants.
type Kind int

const (
	KindServer Kind = iota
	KindClient
	KindDgram
)

func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindClient:
		return "client"
	case KindDgram:
		return "dgram"
	default:
		return "?"
	}
}

// DefaultMaxConn bounds concurrent accepted connections on a server
// context; beyond it, newly accepted sockets are closed immediately.
const DefaultMaxConn = 32

// ServerReconnectDelay is how long a server context waits before retrying
// listen after EADDRNOTAVAIL.
const ServerReconnectDelay = 2 * time.Second

// ClientReconnectDelay is how long a client context waits before retrying
// a failed connect. An unsolicited disconnect is followed by an immediate
// reconnect attempt, without this delay.
const ClientReconnectDelay = 2 * time.Second

// EventCallback is notified of every connection lifecycle event and
// decoded message across all of a Context's connections.
type EventCallback func(c *Context, cn *conn.Connection, event conn.Event, msg *pomp.Message)

// SocketCallback is invoked with a freshly created socket fd, before
// bind/connect, so the caller may apply extra socket options.
type SocketCallback func(c *Context, fd int)

// RawCallback delivers raw-mode payloads; set together with SetRaw(true).
type RawCallback func(c *Context, cn *conn.Connection, data []byte)

// SendCallback is notified once per queued send, across every connection
// owned by the context.
type SendCallback func(c *Context, cn *conn.Connection, status conn.SendStatus)

// Option configures a Context at construction time.
type Option func(*Context)

func WithRaw() Option                        { return func(c *Context) { c.isRaw = true } }
func WithMaxConn(n int) Option                { return func(c *Context) { c.maxConn = n } }
func WithMode(mode os.FileMode) Option        { return func(c *Context) { c.unixMode = mode } }
func WithReadBufSize(n int) Option            { return func(c *Context) { c.readBufSize = n } }
func WithKeepalive(k conn.KeepaliveConfig) Option { return func(c *Context) { c.keepalive = k } }
func WithEventCallback(cb EventCallback) Option   { return func(c *Context) { c.eventCb = cb } }
func WithSocketCallback(cb SocketCallback) Option { return func(c *Context) { c.socketCb = cb } }
func WithRawCallback(cb RawCallback) Option       { return func(c *Context) { c.rawCb = cb } }
func WithSendCallback(cb SendCallback) Option     { return func(c *Context) { c.sendCb = cb } }

// Context is one server, client, or dgram endpoint.
type Context struct {
	id   string
	kind Kind
	loop *loop.Loop
	addr *pomp.Addr

	isRaw       bool
	maxConn     int
	unixMode    os.FileMode
	readBufSize int
	keepalive   conn.KeepaliveConfig

	eventCb  EventCallback
	socketCb SocketCallback
	rawCb    RawCallback
	sendCb   SendCallback

	mu       sync.Mutex
	started  bool
	stopped  bool
	listenFd int
	conns    map[int]*conn.Connection // keyed by fd

	reconnectTimer *loop.Timer

	notifyingDepth int
	stopPending    bool

	scratchMsg *pomp.Message
}

func newContext(l *loop.Loop, kind Kind, addr *pomp.Addr, opts ...Option) *Context {
	c := &Context{
		id:          uuid.NewString(),
		kind:        kind,
		loop:        l,
		addr:        addr,
		maxConn:     DefaultMaxConn,
		readBufSize: conn.DefaultReadBufSize,
		keepalive:   conn.DefaultKeepalive,
		listenFd:    -1,
		conns:       map[int]*conn.Connection{},
		scratchMsg:  pomp.NewMessage(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewServer creates (but does not yet Listen) a server context.
func NewServer(l *loop.Loop, addr *pomp.Addr, opts ...Option) *Context {
	return newContext(l, KindServer, addr, opts...)
}

// NewClient creates (but does not yet Connect) a client context.
func NewClient(l *loop.Loop, addr *pomp.Addr, opts ...Option) *Context {
	return newContext(l, KindClient, addr, opts...)
}

// NewDgram creates (but does not yet Bind) a dgram context.
func NewDgram(l *loop.Loop, addr *pomp.Addr, opts ...Option) *Context {
	return newContext(l, KindDgram, addr, opts...)
}

// ID returns a unique, process-lifetime identifier for this context,
// useful for correlating log lines or metrics across connections.
func (c *Context) ID() string { return c.id }

// Kind returns which of server/client/dgram this context is.
func (c *Context) Kind() Kind { return c.kind }

// SetRaw toggles raw mode. Rejected once Listen/Connect/Bind has run.
func (c *Context) SetRaw(raw bool) error {
	if err := c.checkNotStarted(); err != nil {
		return err
	}
	c.isRaw = raw
	return nil
}

// SetMaxConn overrides the server's concurrent-connection cap. n must be
// positive.
func (c *Context) SetMaxConn(n int) error {
	if n <= 0 {
		return pomp.ErrInvalidArgument
	}
	c.mu.Lock()
	c.maxConn = n
	c.mu.Unlock()
	return nil
}

// SetEventCallback is rejected once Listen/Connect/Bind has run.
func (c *Context) SetEventCallback(cb EventCallback) error {
	if err := c.checkNotStarted(); err != nil {
		return err
	}
	c.eventCb = cb
	return nil
}

// SetSocketCallback is rejected once Listen/Connect/Bind has run.
func (c *Context) SetSocketCallback(cb SocketCallback) error {
	if err := c.checkNotStarted(); err != nil {
		return err
	}
	c.socketCb = cb
	return nil
}

// SetSendCallback is rejected once Listen/Connect/Bind has run.
func (c *Context) SetSendCallback(cb SendCallback) error {
	if err := c.checkNotStarted(); err != nil {
		return err
	}
	c.sendCb = cb
	return nil
}

func (c *Context) checkNotStarted() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return pkgerrors.Wrap(pomp.ErrBusy, "pomp/ctx: already listening/connected/bound")
	}
	return nil
}

func (c *Context) connOptions() []conn.Option {
	opts := []conn.Option{
		conn.WithReadBufSize(c.readBufSize),
		conn.WithKeepalive(c.keepalive),
		conn.WithEventCallback(func(cn *conn.Connection, ev conn.Event, msg *pomp.Message) {
			c.dispatch(cn, ev, msg)
		}),
	}
	if c.isRaw {
		opts = append(opts, conn.WithRaw(), conn.WithRawCallback(func(cn *conn.Connection, data []byte) {
			c.enter()
			defer c.leave()
			if c.rawCb != nil {
				c.rawCb(c, cn, data)
			}
		}))
	}
	if c.sendCb != nil {
		opts = append(opts, conn.WithSendCallback(func(cn *conn.Connection, status conn.SendStatus) {
			c.enter()
			defer c.leave()
			c.sendCb(c, cn, status)
		}))
	}
	return opts
}

func (c *Context) dispatch(cn *conn.Connection, ev conn.Event, msg *pomp.Message) {
	c.enter()
	defer c.leave()
	if ev == conn.EventDisconnected {
		c.mu.Lock()
		delete(c.conns, cn.FD())
		stopped := c.stopped
		c.mu.Unlock()
		if c.kind == KindClient && !stopped {
			_ = c.doConnect()
		}
	}
	if c.eventCb != nil {
		c.eventCb(c, cn, ev, msg)
	}
}

// enter/leave track re-entrancy depth across callback delivery, so Stop
// called from inside a callback can defer its teardown to the next idle
// tick instead of invalidating the in-progress dispatch.
func (c *Context) enter() {
	c.mu.Lock()
	c.notifyingDepth++
	c.mu.Unlock()
}

func (c *Context) leave() {
	c.mu.Lock()
	c.notifyingDepth--
	runStop := c.notifyingDepth == 0 && c.stopPending
	if runStop {
		c.stopPending = false
	}
	c.mu.Unlock()
	if runStop {
		c.doStop()
	}
}

// Stop tears the context down: closes the listening/dgram/client socket,
// disconnects every connection, and cancels any pending reconnect timer.
// Called from within an event callback, the actual teardown is deferred
// until every nested callback on the stack has returned.
func (c *Context) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	if c.notifyingDepth > 0 {
		c.stopPending = true
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	c.doStop()
	return nil
}

func (c *Context) doStop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	listenFd := c.listenFd
	c.listenFd = -1
	conns := make([]*conn.Connection, 0, len(c.conns))
	for _, cn := range c.conns {
		conns = append(conns, cn)
	}
	c.conns = map[int]*conn.Connection{}
	c.mu.Unlock()

	if c.reconnectTimer != nil {
		_ = c.reconnectTimer.Clear()
	}
	if listenFd >= 0 {
		_ = c.loop.Remove(listenFd)
		closeRawFd(listenFd)
	}
	for _, cn := range conns {
		_ = cn.Disconnect()
	}
}
