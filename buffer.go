// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp

import (
	"sync/atomic"

	pkgerrors "github.com/pkg/errors"
)

// MaxFDs is the maximum number of file descriptors a single Buffer can carry.
const MaxFDs = 4

// allocStep is the rounding granularity used by EnsureCapacity.
const allocStep = 256

func alignAlloc(n int) int {
	return (n + allocStep - 1) &^ (allocStep - 1)
}

// Buffer is a growable, reference-counted byte store with an out-of-band
// file-descriptor table. While RefCount() > 1 the buffer is shared and every
// mutating operation fails with ErrPermissionDenied. Buffer is owned by
// exactly one creator; each Ref extends its lifetime until a matching number
// of Unref calls occurs, at which point any fds recorded in the fd table are
// closed and the backing storage is released.
//
// Refcount manipulation (Ref/Unref/IsShared/RefCount) is atomic and safe to
// call from any goroutine; every other method assumes the caller serializes
// access to a given Buffer (single-owner, not thread-safe).
type Buffer struct {
	refcount int32

	data   []byte // len(data) == capacity
	length int

	fdOffsets [MaxFDs]int
	fdCount   int
}

// NewBuffer allocates a buffer with the given initial capacity. capacity=0
// is legal and defers allocation.
func NewBuffer(capacity int) *Buffer {
	b := &Buffer{refcount: 1}
	if capacity > 0 {
		b.data = make([]byte, capacity)
	}
	return b
}

// NewBufferWithData allocates a buffer whose content is a copy of src.
func NewBufferWithData(src []byte) *Buffer {
	b := NewBuffer(len(src))
	copy(b.data, src)
	b.length = len(src)
	return b
}

// NewBufferCopy deep-copies other, including duplicating (via the OS) every
// file descriptor recorded in it. On partial failure the partially built
// buffer is destroyed and any fds it already owns are closed.
func NewBufferCopy(other *Buffer) (*Buffer, error) {
	if other == nil {
		return nil, ErrInvalidArgument
	}
	nb := NewBuffer(other.length)
	nb.length = copy(nb.data, other.data[:other.length])

	for i := 0; i < other.fdCount; i++ {
		off := other.fdOffsets[i]
		fd, err := other.ReadFd(off)
		if err != nil {
			_ = nb.Clear()
			return nil, pkgerrors.Wrap(err, "pomp: buffer copy: read source fd")
		}
		dupfd, err := dupFd(fd)
		if err != nil {
			_ = nb.Clear()
			return nil, pkgerrors.Wrap(err, "pomp: buffer copy: dup fd")
		}
		if err := nb.WriteFd(off, dupfd); err != nil {
			_ = closeFd(dupfd)
			_ = nb.Clear()
			return nil, pkgerrors.Wrap(err, "pomp: buffer copy: register dup fd")
		}
	}
	return nb, nil
}

// Ref increments the reference count. Safe for concurrent use.
func (b *Buffer) Ref() {
	atomic.AddInt32(&b.refcount, 1)
}

// Unref decrements the reference count, releasing all resources (closing
// recorded fds, freeing data) when it reaches zero. Safe for concurrent use.
func (b *Buffer) Unref() {
	if atomic.AddInt32(&b.refcount, -1) == 0 {
		_ = b.Clear()
	}
}

// RefCount returns the current reference count.
func (b *Buffer) RefCount() int32 { return atomic.LoadInt32(&b.refcount) }

// IsShared reports whether RefCount() > 1.
func (b *Buffer) IsShared() bool { return b.RefCount() > 1 }

func (b *Buffer) checkWritable() error {
	if b.IsShared() {
		return ErrPermissionDenied
	}
	return nil
}

// Len returns the number of used bytes.
func (b *Buffer) Len() int { return b.length }

// Capacity returns the allocated size.
func (b *Buffer) Capacity() int { return len(b.data) }

// FDCount returns the number of file descriptors recorded in the buffer.
func (b *Buffer) FDCount() int { return b.fdCount }

// SetCapacity grows (never shrinks below Len()) the backing allocation to
// exactly capacity bytes.
func (b *Buffer) SetCapacity(capacity int) error {
	if capacity < b.length {
		return ErrInvalidArgument
	}
	if err := b.checkWritable(); err != nil {
		return err
	}
	nd := make([]byte, capacity)
	copy(nd, b.data[:b.length])
	b.data = nd
	return nil
}

// EnsureCapacity grows the allocation, rounded up to a 256-byte step, so
// that it is at least n bytes. A no-op if already large enough.
func (b *Buffer) EnsureCapacity(n int) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if n <= b.Capacity() {
		return nil
	}
	return b.SetCapacity(alignAlloc(n))
}

// SetLen sets the logical length; n must not exceed Capacity().
func (b *Buffer) SetLen(n int) error {
	if n < 0 || n > b.Capacity() {
		return ErrInvalidArgument
	}
	if err := b.checkWritable(); err != nil {
		return err
	}
	b.length = n
	return nil
}

// Write copies n bytes from p at pos, growing the buffer as needed and
// raising Len() when pos+len(p) exceeds it.
func (b *Buffer) Write(pos int, p []byte) error {
	if pos < 0 {
		return ErrInvalidArgument
	}
	if err := b.checkWritable(); err != nil {
		return err
	}
	end := pos + len(p)
	if err := b.EnsureCapacity(end); err != nil {
		return err
	}
	copy(b.data[pos:end], p)
	if end > b.length {
		b.length = end
	}
	return nil
}

// Append writes p at the current end of the buffer and returns the offset
// it was written at.
func (b *Buffer) Append(p []byte) (int, error) {
	pos := b.length
	if err := b.Write(pos, p); err != nil {
		return 0, err
	}
	return pos, nil
}

// Read copies min(len(out), Len()-pos) bytes starting at pos into out.
func (b *Buffer) Read(pos int, out []byte) (int, error) {
	if pos < 0 || pos > b.length {
		return 0, ErrInvalidArgument
	}
	n := copy(out, b.data[pos:b.length])
	return n, nil
}

// CRead returns a read-only borrow of n bytes starting at pos. The slice is
// valid until the next mutating call on b or until b is released.
func (b *Buffer) CRead(pos, n int) ([]byte, error) {
	if pos < 0 || n < 0 || pos+n > b.length {
		return nil, ErrInvalidArgument
	}
	return b.data[pos : pos+n : pos+n], nil
}

// WriteFd writes a 4-byte placeholder at pos holding fd and records the
// offset in the fd table. fd is recorded as given, not duplicated: the
// buffer takes ownership of it and closes it on Clear or final Unref.
// Fails if the table is full, the buffer is shared, or fd < 0.
func (b *Buffer) WriteFd(pos, fd int) error {
	if fd < 0 {
		return ErrInvalidArgument
	}
	if err := b.checkWritable(); err != nil {
		return err
	}
	if b.fdCount >= MaxFDs {
		return ErrResourceExhausted
	}
	var placeholder [4]byte
	nativeEndian.PutUint32(placeholder[:], uint32(fd))
	if err := b.Write(pos, placeholder[:]); err != nil {
		return err
	}
	b.fdOffsets[b.fdCount] = pos
	b.fdCount++
	return nil
}

// ReadFd reads the fd recorded at pos. pos must be exactly one of the
// recorded offsets; any other position fails, which prevents misreading fd
// placeholder bytes as ordinary integers.
func (b *Buffer) ReadFd(pos int) (int, error) {
	for i := 0; i < b.fdCount; i++ {
		if b.fdOffsets[i] == pos {
			if pos+4 > b.length {
				return 0, ErrInvalidArgument
			}
			return int(int32(nativeEndian.Uint32(b.data[pos : pos+4]))), nil
		}
	}
	return 0, ErrInvalidArgument
}

// fdOffset reports the i-th recorded fd offset, used by the fd-fixup pass in
// pomp/conn after a message is framed off the wire.
func (b *Buffer) fdOffset(i int) (int, bool) {
	if i < 0 || i >= b.fdCount {
		return 0, false
	}
	return b.fdOffsets[i], true
}

// registerFd records fd (already owned by the caller) at pos without
// writing placeholder bytes; used by the connection read path when
// reassigning ancillary fds onto a buffer already carrying payload bytes.
func (b *Buffer) registerFd(pos, fd int) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if b.fdCount >= MaxFDs {
		return ErrResourceExhausted
	}
	if pos+4 > b.length {
		return ErrInvalidArgument
	}
	nativeEndian.PutUint32(b.data[pos:pos+4], uint32(fd))
	b.fdOffsets[b.fdCount] = pos
	b.fdCount++
	return nil
}

// Clear closes every recorded fd, frees the backing storage and resets the
// buffer to empty. Calling Clear twice is a no-op-after-first that succeeds
// both times.
func (b *Buffer) Clear() error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	for i := 0; i < b.fdCount; i++ {
		fd, err := b.ReadFd(b.fdOffsets[i])
		if err == nil && fd >= 0 {
			_ = closeFd(fd)
		}
	}
	b.fdCount = 0
	b.fdOffsets = [MaxFDs]int{}
	b.data = nil
	b.length = 0
	return nil
}
