// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package conn implements the per-socket I/O state machine: non-blocking
// reads through the protocol framer, a backpressure-aware write queue,
// file-descriptor passing over Unix sockets, async send-completion
// notifications, and TCP keepalive.
package conn

import (
	"sync"

	pkgerrors "github.com/pkg/errors"

	pomp "github.com/Parrot-Developers/libpomp-go"
	"github.com/Parrot-Developers/libpomp-go/pomp/loop"
)

// Event identifies what happened to a Connection or was received on it.
type Event int

const (
	EventConnected Event = iota
	EventDisconnected
	EventMsg
)

func (e Event) String() string {
	switch e {
	case EventConnected:
		return "CONNECTED"
	case EventDisconnected:
		return "DISCONNECTED"
	case EventMsg:
		return "MSG"
	default:
		return "?"
	}
}

// SendStatus is a bit-mask describing the outcome of one queued send, as
// delivered to a SendCallback.
type SendStatus uint8

const (
	SendOK         SendStatus = 1 << iota // the buffer was fully written
	SendQueueEmpty                        // the write queue drained to empty after this send
	SendAborted                           // the connection was torn down before this send completed
)

func (s SendStatus) String() string {
	out := ""
	add := func(bit SendStatus, name string) {
		if s&bit != 0 {
			if out != "" {
				out += "|"
			}
			out += name
		}
	}
	add(SendOK, "OK")
	add(SendQueueEmpty, "QUEUE_EMPTY")
	add(SendAborted, "ABORTED")
	if out == "" {
		return "NONE"
	}
	return out
}

// EventCallback is notified of connection lifecycle events and of each
// decoded message (msg is non-nil only for EventMsg, and owned by the
// callback — release it when done).
type EventCallback func(c *Connection, event Event, msg *pomp.Message)

// RawCallback delivers data in raw mode, where framing is skipped.
type RawCallback func(c *Connection, data []byte)

// SendCallback is notified once per successful Send call, in enqueue
// order.
type SendCallback func(c *Connection, status SendStatus)

// KeepaliveConfig configures TCP keepalive, applied at socket-creation
// time; changing it afterward does not retroactively affect an existing
// Connection.
type KeepaliveConfig struct {
	Enable          bool
	IdleSeconds     int
	IntervalSeconds int
	ProbeCount      int
}

// DefaultKeepalive matches the reference implementation's defaults:
// enabled, 5s idle, 1s probe interval, 2 probes before the peer is
// considered dead.
var DefaultKeepalive = KeepaliveConfig{Enable: true, IdleSeconds: 5, IntervalSeconds: 1, ProbeCount: 2}

// DefaultReadBufSize is the default per-read allocation, overridable per
// connection.
const DefaultReadBufSize = 4096

// Option configures a Connection at construction time.
type Option func(*Connection)

// WithRaw skips the protocol framer: reads are delivered whole via
// RawCallback instead of being decoded into Messages.
func WithRaw() Option { return func(c *Connection) { c.isRaw = true } }

// WithReadBufSize overrides the default read-buffer allocation size.
func WithReadBufSize(n int) Option { return func(c *Connection) { c.readBufSize = n } }

// WithEventCallback sets the connection/message event callback.
func WithEventCallback(cb EventCallback) Option { return func(c *Connection) { c.eventCb = cb } }

// WithRawCallback sets the raw-mode data callback.
func WithRawCallback(cb RawCallback) Option { return func(c *Connection) { c.rawCb = cb } }

// WithSendCallback enables send-completion notifications.
func WithSendCallback(cb SendCallback) Option { return func(c *Connection) { c.sendCb = cb } }

// WithKeepalive overrides the default keepalive configuration.
func WithKeepalive(cfg KeepaliveConfig) Option {
	return func(c *Connection) { c.keepaliveCfg = cfg }
}

type writeEntry struct {
	data    []byte
	off     int
	fds     []int
	fdsSent bool
	cb      SendCallback
}

// Connection wraps one socket fd: the framing/raw read path, the
// backpressure write queue, fd passing, and keepalive. Not safe for
// concurrent use from multiple goroutines beyond Send, which may be
// called from any goroutine (with an empty queue it writes immediately on
// the calling goroutine, otherwise it appends to the queue); everything
// else runs on the owning Loop's goroutine.
type Connection struct {
	loop        *loop.Loop
	fd          int
	isDgram     bool
	isRaw       bool
	isUnix      bool
	readBufSize int

	framer *pomp.Protocol

	mu            sync.Mutex
	writeQueue    []*writeEntry
	subscribedOut bool

	localAddr *pomp.Addr
	peerAddr  *pomp.Addr

	rxFDs []int

	readSuspended bool
	shutdownFlag  bool
	removed       bool

	eventCb      EventCallback
	rawCb        RawCallback
	sendCb       SendCallback
	keepaliveCfg KeepaliveConfig
}

// New wraps fd (already bound/connected/accepted by the caller) in a
// Connection registered on l.
func New(l *loop.Loop, fd int, isDgram, isUnix bool, local, peer *pomp.Addr, opts ...Option) (*Connection, error) {
	c := &Connection{
		loop:         l,
		fd:           fd,
		isDgram:      isDgram,
		isUnix:       isUnix,
		readBufSize:  DefaultReadBufSize,
		keepaliveCfg: DefaultKeepalive,
		localAddr:    local,
		peerAddr:     peer,
	}
	for _, o := range opts {
		o(c)
	}
	if !c.isRaw {
		c.framer = pomp.NewProtocol()
	}
	if err := setNonblock(fd); err != nil {
		return nil, pkgerrors.Wrap(err, "pomp/conn: set nonblocking")
	}
	if !isDgram && !isUnix {
		_ = applyKeepalive(fd, c.keepaliveCfg)
	}
	if err := l.Add(fd, loop.In, c.onEvent); err != nil {
		return nil, pkgerrors.Wrap(err, "pomp/conn: register with loop")
	}
	return c, nil
}

// FD returns the underlying socket descriptor.
func (c *Connection) FD() int { return c.fd }

// LocalAddr returns the connection's local address, if known.
func (c *Connection) LocalAddr() *pomp.Addr { return c.localAddr }

// PeerAddr returns the connection's peer address, if known.
func (c *Connection) PeerAddr() *pomp.Addr { return c.peerAddr }

// IsDgram reports whether this connection wraps a datagram socket.
func (c *Connection) IsDgram() bool { return c.isDgram }

// PeerCredentials returns the Unix-domain peer's pid/uid/gid. ok is false
// for non-Unix sockets or on platforms without a wired credentials API.
func (c *Connection) PeerCredentials() (pid int32, uid, gid uint32, ok bool) {
	if !c.isUnix {
		return 0, 0, 0, false
	}
	return peerCredentials(c.fd)
}

// SuspendRead stops delivering EVENT_IN-triggered reads until ResumeRead
// is called, without dropping the connection.
func (c *Connection) SuspendRead() { c.readSuspended = true }

// ResumeRead re-enables reads suspended by SuspendRead.
func (c *Connection) ResumeRead() {
	c.readSuspended = false
	c.drainReadable()
}

// Disconnect shuts the socket down for reads and writes; subsequent Send
// calls fail with ErrNotConnected. The connection is actually removed
// from the loop on its next dispatch pass, so the caller's current
// dispatch is never invalidated by a self-removal.
func (c *Connection) Disconnect() error {
	if c.shutdownFlag {
		return nil
	}
	c.shutdownFlag = true
	shutdownBoth(c.fd)
	c.flushPendingAsAborted()
	return c.loop.AddIdle(func() { c.teardown() })
}

func (c *Connection) teardown() {
	if c.removed {
		return
	}
	c.removed = true
	_ = c.loop.Remove(c.fd)
	_ = closeFd(c.fd)
	for _, fd := range c.rxFDs {
		_ = closeFd(fd)
	}
	c.rxFDs = nil
	if c.eventCb != nil {
		c.eventCb(c, EventDisconnected, nil)
	}
}

func (c *Connection) flushPendingAsAborted() {
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
