// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp

import (
	"fmt"
	"strings"
)

// Dump renders msg as "{ID:<n>, TAG:value, ...}", walking every argument in
// wire order. Buffer arguments contribute a bare "BUF:" with no content —
// dumping buffer bytes is not implemented, matching upstream's dump_append_buf.
func Dump(msg *Message) (string, error) {
	if msg == nil || msg.buf == nil {
		return "", ErrInvalidArgument
	}
	dec := NewDecoder()
	if err := dec.Init(msg); err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "{ID:%d", msg.id)

	for dec.More() {
		tag, err := dec.PeekTag()
		if err != nil {
			return "", err
		}
		switch tag {
		case TagI8:
			v, err := dec.ReadI8()
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, ", I8:%d", v)
		case TagU8:
			v, err := dec.ReadU8()
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, ", U8:%d", v)
		case TagI16:
			v, err := dec.ReadI16()
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, ", I16:%d", v)
		case TagU16:
			v, err := dec.ReadU16()
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, ", U16:%d", v)
		case TagI32:
			v, err := dec.ReadI32()
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, ", I32:%d", v)
		case TagU32:
			v, err := dec.ReadU32()
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, ", U32:%d", v)
		case TagI64:
			v, err := dec.ReadI64()
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, ", I64:%d", v)
		case TagU64:
			v, err := dec.ReadU64()
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, ", U64:%d", v)
		case TagString:
			v, err := dec.ReadString()
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, ", STR:'%s'", v)
		case TagBuffer:
			if _, err := dec.ReadBuffer(); err != nil {
				return "", err
			}
			sb.WriteString(", BUF:")
		case TagF32:
			v, err := dec.ReadF32()
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, ", F32:%.7g", v)
		case TagF64:
			v, err := dec.ReadF64()
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, ", F64:%.7g", v)
		case TagFD:
			v, err := dec.ReadFd()
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, ", FD:%d", v)
		default:
			return "", ErrInvalidArgument
		}
	}

	sb.WriteString("}")
	return sb.String(), nil
}

// DumpTrunc renders msg like Dump but never returns more than maxLen bytes
// (as if writing into a maxLen-byte fixed buffer including a NUL
// terminator). When the full dump would not fit, the last four visible
// bytes become "...}" so the output is always well-formed and closed.
func DumpTrunc(msg *Message, maxLen int) (string, error) {
	full, err := Dump(msg)
	if err != nil {
		return "", err
	}
	if maxLen <= 0 {
		return "", nil
	}
	visible := maxLen - 1 // room for the conceptual NUL terminator
	if visible < 0 {
		visible = 0
	}
	if len(full) <= visible {
		return full, nil
	}
	if visible < 5 {
		// Not enough room for a meaningful ellipsis; hard-truncate.
		return full[:visible], nil
	}
	b := []byte(full[:visible])
	b[len(b)-4] = '.'
	b[len(b)-3] = '.'
	b[len(b)-2] = '.'
	b[len(b)-1] = '}'
	return string(b), nil
}
