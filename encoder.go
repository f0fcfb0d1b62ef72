// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp

import "math"

// Encoder appends typed arguments to an open Message, advancing an internal
// cursor. Not thread-safe; single-owner, like the buffer it writes into.
type Encoder struct {
	msg *Message
	pos int
}

// NewEncoder returns an unbound encoder; call Init before use.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Init binds the encoder to msg, starting the cursor right after the
// reserved header.
func (e *Encoder) Init(msg *Message) error {
	if msg == nil || msg.buf == nil {
		return ErrInvalidArgument
	}
	e.msg = msg
	e.pos = HeaderSize
	return nil
}

// Clear unbinds the encoder.
func (e *Encoder) Clear() {
	e.msg = nil
	e.pos = 0
}

func (e *Encoder) writeRaw(p []byte) error {
	if e.msg == nil {
		return ErrInvalidArgument
	}
	if e.msg.finished {
		return ErrPermissionDenied
	}
	if err := e.msg.buf.Write(e.pos, p); err != nil {
		return err
	}
	e.pos += len(p)
	return nil
}

func (e *Encoder) writeTag(t Tag) error {
	return e.writeRaw([]byte{byte(t)})
}

func (e *Encoder) writeVarint(v uint64) error {
	var tmp [maxVarintLen]byte
	return e.writeRaw(putUvarint(tmp[:0], v))
}

// WriteI8 encodes a signed 8-bit integer.
func (e *Encoder) WriteI8(v int8) error {
	if err := e.writeTag(TagI8); err != nil {
		return err
	}
	return e.writeRaw([]byte{byte(v)})
}

// WriteU8 encodes an unsigned 8-bit integer.
func (e *Encoder) WriteU8(v uint8) error {
	if err := e.writeTag(TagU8); err != nil {
		return err
	}
	return e.writeRaw([]byte{v})
}

// WriteI16 encodes a signed 16-bit integer, little-endian.
func (e *Encoder) WriteI16(v int16) error {
	if err := e.writeTag(TagI16); err != nil {
		return err
	}
	var b [2]byte
	littleEndian.PutUint16(b[:], uint16(v))
	return e.writeRaw(b[:])
}

// WriteU16 encodes an unsigned 16-bit integer, little-endian.
func (e *Encoder) WriteU16(v uint16) error {
	if err := e.writeTag(TagU16); err != nil {
		return err
	}
	var b [2]byte
	littleEndian.PutUint16(b[:], v)
	return e.writeRaw(b[:])
}

// WriteI32 encodes a signed 32-bit integer as a zigzag varint.
func (e *Encoder) WriteI32(v int32) error {
	if err := e.writeTag(TagI32); err != nil {
		return err
	}
	return e.writeVarint(uint64(zigzagEncode32(v)))
}

// WriteU32 encodes an unsigned 32-bit integer as a varint.
func (e *Encoder) WriteU32(v uint32) error {
	if err := e.writeTag(TagU32); err != nil {
		return err
	}
	return e.writeVarint(uint64(v))
}

// WriteI64 encodes a signed 64-bit integer as a zigzag varint.
func (e *Encoder) WriteI64(v int64) error {
	if err := e.writeTag(TagI64); err != nil {
		return err
	}
	return e.writeVarint(zigzagEncode64(v))
}

// WriteU64 encodes an unsigned 64-bit integer as a varint.
func (e *Encoder) WriteU64(v uint64) error {
	if err := e.writeTag(TagU64); err != nil {
		return err
	}
	return e.writeVarint(v)
}

// WriteString encodes s as a NUL-terminated string: a varint length
// (including the NUL) followed by the bytes. Empty strings are rejected,
// since the decoder must be able to reject a bare-NUL (length 1) string.
func (e *Encoder) WriteString(s string) error {
	if len(s) == 0 {
		return ErrInvalidArgument
	}
	if err := e.writeTag(TagString); err != nil {
		return err
	}
	if err := e.writeVarint(uint64(len(s) + 1)); err != nil {
		return err
	}
	if err := e.writeRaw([]byte(s)); err != nil {
		return err
	}
	return e.writeRaw([]byte{0})
}

// WriteBuffer encodes an opaque byte buffer: a varint length followed by the
// raw bytes.
func (e *Encoder) WriteBuffer(p []byte) error {
	if err := e.writeTag(TagBuffer); err != nil {
		return err
	}
	if err := e.writeVarint(uint64(len(p))); err != nil {
		return err
	}
	return e.writeRaw(p)
}

// WriteF32 encodes a 32-bit IEEE-754 float, little-endian.
func (e *Encoder) WriteF32(v float32) error {
	if err := e.writeTag(TagF32); err != nil {
		return err
	}
	var b [4]byte
	littleEndian.PutUint32(b[:], math.Float32bits(v))
	return e.writeRaw(b[:])
}

// WriteF64 encodes a 64-bit IEEE-754 float, little-endian.
func (e *Encoder) WriteF64(v float64) error {
	if err := e.writeTag(TagF64); err != nil {
		return err
	}
	var b [8]byte
	littleEndian.PutUint64(b[:], math.Float64bits(v))
	return e.writeRaw(b[:])
}

// WriteFd encodes a file-descriptor argument: the in-band 4-byte slot is a
// placeholder (the connection replaces on-the-wire transmission with
// SCM_RIGHTS ancillary data); fd must be >= 0 and the buffer must have room
// in its fd table (at most MaxFDs entries).
func (e *Encoder) WriteFd(fd int) error {
	if e.msg == nil {
		return ErrInvalidArgument
	}
	if e.msg.finished {
		return ErrPermissionDenied
	}
	if err := e.writeTag(TagFD); err != nil {
		return err
	}
	pos := e.pos
	if err := e.msg.buf.WriteFd(pos, fd); err != nil {
		return err
	}
	e.pos += 4
	return nil
}
