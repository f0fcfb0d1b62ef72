// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp

// protoState is the internal decoding state of a Protocol framer.
type protoState int

const (
	protoStateIdle protoState = iota
	protoStateMagic0
	protoStateMagic1
	protoStateMagic2
	protoStateMagic3
	protoStateHeader
	protoStatePayload
)

// Protocol is a streaming frame decoder: fed arbitrary, possibly short,
// chunks of bytes via Decode, it extracts complete Messages one at a time.
// It is not thread-safe; a connection owns exactly one Protocol per
// receive direction.
type Protocol struct {
	state protoState

	headerBuf [HeaderSize]byte
	offHeader int

	msgID  uint32
	size   uint32
	msg    *Message
	reused *Message // spare message kept around by ReleaseMsg for reuse
}

// NewProtocol returns a freshly reset frame decoder.
func NewProtocol() *Protocol {
	p := &Protocol{}
	p.resetState()
	return p
}

func (p *Protocol) resetState() {
	p.state = protoStateIdle
	p.headerBuf = [HeaderSize]byte{}
	p.offHeader = 0
	p.msgID = 0
	p.size = 0
}

func (p *Protocol) allocMsg(id uint32, size int) error {
	if p.msg == nil {
		if p.reused != nil {
			p.msg = p.reused
			p.reused = nil
		} else {
			p.msg = NewMessage()
		}
	}
	if err := p.msg.Init(id); err != nil {
		return err
	}
	return p.msg.buf.EnsureCapacity(size)
}

func (p *Protocol) decodeHeader() bool {
	if p.headerBuf[0] != magic[0] || p.headerBuf[1] != magic[1] ||
		p.headerBuf[2] != magic[2] || p.headerBuf[3] != magic[3] {
		p.state = protoStateMagic0
		return false
	}
	p.msgID = littleEndian.Uint32(p.headerBuf[4:8])
	p.size = littleEndian.Uint32(p.headerBuf[8:12])

	if p.size < HeaderSize {
		p.state = protoStateMagic0
		return false
	}
	if err := p.allocMsg(p.msgID, int(p.size)); err != nil {
		p.state = protoStateMagic0
		return false
	}
	if err := p.msg.buf.Write(0, p.headerBuf[:]); err != nil {
		p.state = protoStateMagic0
		return false
	}
	if err := p.msg.buf.SetLen(HeaderSize); err != nil {
		p.state = protoStateMagic0
		return false
	}
	p.state = protoStatePayload
	return true
}

// checkMagic consumes one magic byte at src[off], advances to next on
// match, otherwise falls back to the hunt-for-magic-0 state.
func (p *Protocol) checkMagic(idx int, want byte, next protoState) {
	if p.headerBuf[idx] != want {
		p.state = protoStateMagic0
		return
	}
	p.state = next
}

// Decode feeds src into the decoder. It returns the number of bytes
// consumed (which may be less than len(src)) and, once a full frame has
// been assembled, the decoded Message. The returned message is owned by
// the caller; release it with ReleaseMsg to let the Protocol reuse its
// allocation for the next frame.
func (p *Protocol) Decode(src []byte) (int, *Message, error) {
	off := 0
	n := len(src)

	if p.state == protoStateIdle {
		p.state = protoStateMagic0
	}

	for off < n && p.state != protoStateIdle {
		switch p.state {
		case protoStateMagic0:
			p.resetState()
			p.state = protoStateMagic0
			p.headerBuf[p.offHeader] = src[off]
			p.offHeader++
			off++
			p.checkMagic(0, magic[0], protoStateMagic1)

		case protoStateMagic1:
			p.headerBuf[p.offHeader] = src[off]
			p.offHeader++
			off++
			p.checkMagic(1, magic[1], protoStateMagic2)

		case protoStateMagic2:
			p.headerBuf[p.offHeader] = src[off]
			p.offHeader++
			off++
			p.checkMagic(2, magic[2], protoStateMagic3)

		case protoStateMagic3:
			p.headerBuf[p.offHeader] = src[off]
			p.offHeader++
			off++
			p.checkMagic(3, magic[3], protoStateHeader)

		case protoStateHeader:
			toCopy := HeaderSize - p.offHeader
			if toCopy > n-off {
				toCopy = n - off
			}
			copy(p.headerBuf[p.offHeader:], src[off:off+toCopy])
			p.offHeader += toCopy
			off += toCopy
			if p.offHeader == HeaderSize {
				p.decodeHeader()
			}

		case protoStatePayload:
			cur := p.msg.buf.Len()
			want := int(p.size) - cur
			toCopy := n - off
			if toCopy > want {
				toCopy = want
			}
			if toCopy > 0 {
				if _, err := p.msg.buf.Append(src[off : off+toCopy]); err != nil {
					return off, nil, err
				}
				off += toCopy
			}

		default:
			return off, nil, ErrInvalidArgument
		}

		if p.state == protoStatePayload && p.msg.buf.Len() == int(p.size) {
			p.msg.finished = true
			out := p.msg
			p.msg = nil
			p.state = protoStateIdle
			return off, out, nil
		}
	}

	return off, nil, nil
}

// ReleaseMsg hands msg back to the Protocol so its buffer can be reused
// for the next decoded frame instead of allocating a fresh one. Safe to
// call with a message that came from a different Protocol; it is simply
// released in that case.
func (p *Protocol) ReleaseMsg(msg *Message) {
	if msg == nil {
		return
	}
	if p.reused != nil {
		msg.Release()
		return
	}
	msg.Release()
	p.reused = msg
}

// Clear resets the decoder to its initial idle state, discarding any
// partially decoded frame.
func (p *Protocol) Clear() {
	if p.msg != nil {
		p.msg.Release()
		p.msg = nil
	}
	p.resetState()
}
