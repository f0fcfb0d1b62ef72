// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pomp implements the core of the Printf-Oriented Message Protocol
// (POMP): reference-counted buffers, the typed wire codec and its
// printf/scanf-style front-end, the streaming protocol framer, and address
// parsing. pomp/loop, pomp/conn and pomp/ctx build the event loop and
// connection/context layers on top of this package.
package pomp

import "errors"

// Sentinel errors for the abstract error kinds of the protocol. Call
// sites in pomp/loop, pomp/conn and pomp/ctx wrap these with
// github.com/pkg/errors.Wrap to attach context while keeping errors.Is
// working against the sentinel below.
var (
	// ErrInvalidArgument reports a malformed input: bad format specifier,
	// size overflow, unknown type tag, unknown address scheme, or a
	// negative fd passed to WriteFd.
	ErrInvalidArgument = errors.New("pomp: invalid argument")

	// ErrPermissionDenied reports a mutation attempted on a shared
	// (refcount > 1) or sealed buffer/message.
	ErrPermissionDenied = errors.New("pomp: permission denied")

	// ErrNotConnected reports a send on a client with no active connection,
	// or a SendTo on a dgram context with no resolvable peer.
	ErrNotConnected = errors.New("pomp: not connected")

	// ErrBusy reports destroy of a resource with sub-resources still in
	// use, an Attach on an already-attached event, or a second Listen/Bind.
	ErrBusy = errors.New("pomp: busy")

	// ErrNotFound reports removal of an fd that was never registered, or an
	// idle cookie that is not pending.
	ErrNotFound = errors.New("pomp: not found")

	// ErrResourceExhausted reports MAX_FDS reached on a buffer, or MAX_CONN
	// reached on a server context (the latter results in a silent close of
	// the accepted socket, not a returned error — see pomp/ctx).
	ErrResourceExhausted = errors.New("pomp: resource exhausted")

	// ErrTimedOut reports WaitAndProcess returning with no event before the
	// deadline.
	ErrTimedOut = errors.New("pomp: timed out")

	// ErrTooLong reports a frame whose declared size exceeds what the
	// header can carry, or a varint longer than 10 bytes.
	ErrTooLong = errors.New("pomp: message too long")
)
