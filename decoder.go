// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp

import "math"

// Decoder reads typed arguments back out of a sealed Message, advancing an
// internal cursor. Not thread-safe; single-owner.
type Decoder struct {
	msg *Message
	pos int
}

// NewDecoder returns an unbound decoder; call Init before use.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Init binds the decoder to msg, starting the cursor right after the
// header.
func (d *Decoder) Init(msg *Message) error {
	if msg == nil || msg.buf == nil {
		return ErrInvalidArgument
	}
	d.msg = msg
	d.pos = HeaderSize
	return nil
}

// Clear unbinds the decoder.
func (d *Decoder) Clear() {
	d.msg = nil
	d.pos = 0
}

// More reports whether unread bytes remain in the message.
func (d *Decoder) More() bool {
	return d.msg != nil && d.pos < d.msg.buf.Len()
}

func (d *Decoder) readExact(n int) ([]byte, error) {
	if d.msg == nil {
		return nil, ErrInvalidArgument
	}
	if n < 0 || d.pos+n > d.msg.buf.Len() {
		return nil, ErrInvalidArgument
	}
	b, err := d.msg.buf.CRead(d.pos, n)
	if err != nil {
		return nil, err
	}
	d.pos += n
	return b, nil
}

// PeekTag returns the next argument's tag without consuming it.
func (d *Decoder) PeekTag() (Tag, error) {
	if d.msg == nil || d.pos >= d.msg.buf.Len() {
		return 0, ErrInvalidArgument
	}
	b, err := d.msg.buf.CRead(d.pos, 1)
	if err != nil {
		return 0, err
	}
	return Tag(b[0]), nil
}

func (d *Decoder) expectTag(want Tag) error {
	b, err := d.readExact(1)
	if err != nil {
		return err
	}
	if Tag(b[0]) != want {
		return ErrInvalidArgument
	}
	return nil
}

func (d *Decoder) readVarintRaw() (uint64, error) {
	if d.msg == nil {
		return 0, ErrInvalidArgument
	}
	avail := d.msg.buf.Len() - d.pos
	if avail > maxVarintLen {
		avail = maxVarintLen
	}
	if avail < 0 {
		return 0, ErrInvalidArgument
	}
	window, err := d.msg.buf.CRead(d.pos, avail)
	if err != nil {
		return 0, err
	}
	v, n, err := readUvarint(window)
	if err != nil {
		return 0, err
	}
	d.pos += n
	return v, nil
}

// ReadI8 decodes a signed 8-bit integer.
func (d *Decoder) ReadI8() (int8, error) {
	if err := d.expectTag(TagI8); err != nil {
		return 0, err
	}
	b, err := d.readExact(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

// ReadU8 decodes an unsigned 8-bit integer.
func (d *Decoder) ReadU8() (uint8, error) {
	if err := d.expectTag(TagU8); err != nil {
		return 0, err
	}
	b, err := d.readExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadI16 decodes a signed 16-bit integer, little-endian.
func (d *Decoder) ReadI16() (int16, error) {
	if err := d.expectTag(TagI16); err != nil {
		return 0, err
	}
	b, err := d.readExact(2)
	if err != nil {
		return 0, err
	}
	return int16(littleEndian.Uint16(b)), nil
}

// ReadU16 decodes an unsigned 16-bit integer, little-endian.
func (d *Decoder) ReadU16() (uint16, error) {
	if err := d.expectTag(TagU16); err != nil {
		return 0, err
	}
	b, err := d.readExact(2)
	if err != nil {
		return 0, err
	}
	return littleEndian.Uint16(b), nil
}

// ReadI32 decodes a signed 32-bit integer from a zigzag varint.
func (d *Decoder) ReadI32() (int32, error) {
	if err := d.expectTag(TagI32); err != nil {
		return 0, err
	}
	v, err := d.readVarintRaw()
	if err != nil {
		return 0, err
	}
	return zigzagDecode32(uint32(v)), nil
}

// ReadU32 decodes an unsigned 32-bit integer from a varint.
func (d *Decoder) ReadU32() (uint32, error) {
	if err := d.expectTag(TagU32); err != nil {
		return 0, err
	}
	v, err := d.readVarintRaw()
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// ReadI64 decodes a signed 64-bit integer from a zigzag varint.
func (d *Decoder) ReadI64() (int64, error) {
	if err := d.expectTag(TagI64); err != nil {
		return 0, err
	}
	v, err := d.readVarintRaw()
	if err != nil {
		return 0, err
	}
	return zigzagDecode64(v), nil
}

// ReadU64 decodes an unsigned 64-bit integer from a varint.
func (d *Decoder) ReadU64() (uint64, error) {
	if err := d.expectTag(TagU64); err != nil {
		return 0, err
	}
	return d.readVarintRaw()
}

// ReadString decodes a NUL-terminated string and returns an owned copy
// without the trailing NUL. A declared length of 0 or 1 (bare NUL), a
// length exceeding the remaining payload, or a non-NUL final byte are all
// rejected as ErrInvalidArgument.
func (d *Decoder) ReadString() (string, error) {
	if err := d.expectTag(TagString); err != nil {
		return "", err
	}
	n, err := d.readVarintRaw()
	if err != nil {
		return "", err
	}
	if n < 2 {
		return "", ErrInvalidArgument
	}
	b, err := d.readExact(int(n))
	if err != nil {
		return "", err
	}
	if b[len(b)-1] != 0 {
		return "", ErrInvalidArgument
	}
	return string(b[:len(b)-1]), nil
}

// ReadBuffer decodes an opaque byte buffer and returns an owned copy.
func (d *Decoder) ReadBuffer() ([]byte, error) {
	if err := d.expectTag(TagBuffer); err != nil {
		return nil, err
	}
	n, err := d.readVarintRaw()
	if err != nil {
		return nil, err
	}
	b, err := d.readExact(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadF32 decodes a 32-bit IEEE-754 float, little-endian.
func (d *Decoder) ReadF32() (float32, error) {
	if err := d.expectTag(TagF32); err != nil {
		return 0, err
	}
	b, err := d.readExact(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(littleEndian.Uint32(b)), nil
}

// ReadF64 decodes a 64-bit IEEE-754 float, little-endian.
func (d *Decoder) ReadF64() (float64, error) {
	if err := d.expectTag(TagF64); err != nil {
		return 0, err
	}
	b, err := d.readExact(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(littleEndian.Uint64(b)), nil
}

// ReadFd decodes a file-descriptor argument. pos must be one of the
// offsets recorded in the buffer's fd table (typically populated by the
// connection's fd-fixup pass on receive); otherwise it fails, which
// prevents misreading fd placeholder bytes as an ordinary integer.
func (d *Decoder) ReadFd() (int, error) {
	if err := d.expectTag(TagFD); err != nil {
		return 0, err
	}
	pos := d.pos
	if _, err := d.readExact(4); err != nil {
		return 0, err
	}
	return d.msg.buf.ReadFd(pos)
}
