// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp

// HeaderSize is the size in bytes of a frame header: 4 bytes magic, 4 bytes
// little-endian message id, 4 bytes little-endian total frame size.
const HeaderSize = 12

// magic is the fixed 4-byte prefix of every frame, always 'P','O','M','P'.
var magic = [4]byte{'P', 'O', 'M', 'P'}

// Message is the (id, buffer, finished) triple. An open message
// (Finished()==false) is still receiving encoded arguments through an
// Encoder; a sealed message (Finished()==true) has its header written and is
// immutable.
type Message struct {
	id       uint32
	finished bool
	buf      *Buffer
}

// NewMessage returns an empty, uninitialized message.
func NewMessage() *Message {
	return &Message{}
}

// Init starts a new open message with the given id, allocating a fresh
// buffer and reserving space for the header.
func (m *Message) Init(id uint32) error {
	if m.buf != nil {
		m.buf.Unref()
	}
	m.buf = NewBuffer(HeaderSize)
	if err := m.buf.SetLen(HeaderSize); err != nil {
		return err
	}
	m.id = id
	m.finished = false
	return nil
}

// initWithBuffer associates an already-built buffer (header space
// included) with this message, sealed or not as finished says, dropping
// the reference to any buffer it held before.
func (m *Message) initWithBuffer(id uint32, buf *Buffer, finished bool) {
	if m.buf != nil {
		m.buf.Unref()
	}
	m.id = id
	m.buf = buf
	m.finished = finished
}

// ID returns the message id.
func (m *Message) ID() uint32 { return m.id }

// Finished reports whether the message is sealed.
func (m *Message) Finished() bool { return m.finished }

// Buffer returns the backing buffer, or nil for an uninitialized message.
func (m *Message) Buffer() *Buffer { return m.buf }

// Finish writes the final header (magic, id, total frame size) and seals the
// message. After Finish, further encoding on the same Encoder fails.
func (m *Message) Finish() error {
	if m.buf == nil {
		return ErrInvalidArgument
	}
	if m.finished {
		return nil
	}
	size := m.buf.Len()
	var hdr [HeaderSize]byte
	copy(hdr[0:4], magic[:])
	littleEndian.PutUint32(hdr[4:8], m.id)
	littleEndian.PutUint32(hdr[8:12], uint32(size))
	if err := m.buf.Write(0, hdr[:]); err != nil {
		return err
	}
	m.finished = true
	return nil
}

// Clone deep-copies a sealed message, duplicating any carried file
// descriptors. It fails on an open (unsealed) message.
func (m *Message) Clone() (*Message, error) {
	if !m.finished || m.buf == nil {
		return nil, ErrInvalidArgument
	}
	nb, err := NewBufferCopy(m.buf)
	if err != nil {
		return nil, err
	}
	return &Message{id: m.id, finished: true, buf: nb}, nil
}

// Release drops the message's reference to its buffer and resets it to the
// zero value, ready for reuse via Init.
func (m *Message) Release() {
	if m.buf != nil {
		m.buf.Unref()
		m.buf = nil
	}
	m.id = 0
	m.finished = false
}

// AssignFDs walks the payload looking for FD-tag placeholders and records
// fds against them in encounter order, marrying ancillary SCM_RIGHTS file
// descriptors (which arrive out-of-band, alongside but separate from the
// payload bytes) to the positions their sender wrote inline. Used by the
// connection's receive path once a frame and its fds have both arrived.
// If more fds arrive than the payload has placeholders for, the surplus is
// closed here rather than married to anything; the message is still
// delivered with the placeholders it does have filled in.
func (m *Message) AssignFDs(fds []int) error {
	if m.buf == nil {
		return ErrInvalidArgument
	}
	if len(fds) == 0 {
		return nil
	}
	pos := HeaderSize
	idx := 0
	total := m.buf.Len()
	for pos < total && idx < len(fds) {
		tb, err := m.buf.CRead(pos, 1)
		if err != nil {
			return err
		}
		tag := Tag(tb[0])
		pos++
		switch tag {
		case TagI8, TagU8:
			pos++
		case TagI16, TagU16:
			pos += 2
		case TagI32, TagU32, TagI64, TagU64:
			window, err := m.buf.CRead(pos, min(maxVarintLen, total-pos))
			if err != nil {
				return err
			}
			_, n, err := readUvarint(window)
			if err != nil {
				return err
			}
			pos += n
		case TagString, TagBuffer:
			window, err := m.buf.CRead(pos, min(maxVarintLen, total-pos))
			if err != nil {
				return err
			}
			n, nn, err := readUvarint(window)
			if err != nil {
				return err
			}
			pos += nn + int(n)
		case TagF32:
			pos += 4
		case TagF64:
			pos += 8
		case TagFD:
			if err := m.buf.registerFd(pos, fds[idx]); err != nil {
				return err
			}
			idx++
			pos += 4
		default:
			return ErrInvalidArgument
		}
	}
	for ; idx < len(fds); idx++ {
		_ = closeFd(fds[idx])
	}
	return nil
}

// FDs returns the file descriptors carried by this message's buffer, in
// the order they were written, for use by the connection's send path when
// building the SCM_RIGHTS ancillary data.
func (m *Message) FDs() ([]int, error) {
	if m.buf == nil {
		return nil, nil
	}
	n := m.buf.FDCount()
	if n == 0 {
		return nil, nil
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		off, ok := m.buf.fdOffset(i)
		if !ok {
			return nil, ErrInvalidArgument
		}
		fd, err := m.buf.ReadFd(off)
		if err != nil {
			return nil, err
		}
		out = append(out, fd)
	}
	return out, nil
}

// Serialize returns the raw frame bytes of a sealed message: header followed
// by payload.
func (m *Message) Serialize() ([]byte, error) {
	if !m.finished || m.buf == nil {
		return nil, ErrInvalidArgument
	}
	out := make([]byte, m.buf.Len())
	if _, err := m.buf.Read(0, out); err != nil {
		return nil, err
	}
	return out, nil
}
