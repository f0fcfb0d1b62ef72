// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp

// Tag identifies the wire type of one encoded argument.
type Tag byte

const (
	TagI8     Tag = 0x01
	TagU8     Tag = 0x02
	TagI16    Tag = 0x03
	TagU16    Tag = 0x04
	TagI32    Tag = 0x05
	TagU32    Tag = 0x06
	TagI64    Tag = 0x07
	TagU64    Tag = 0x08
	TagString Tag = 0x09
	TagBuffer Tag = 0x0a
	TagF32    Tag = 0x0b
	TagF64    Tag = 0x0c
	TagFD     Tag = 0x0d
)

func (t Tag) String() string {
	switch t {
	case TagI8:
		return "I8"
	case TagU8:
		return "U8"
	case TagI16:
		return "I16"
	case TagU16:
		return "U16"
	case TagI32:
		return "I32"
	case TagU32:
		return "U32"
	case TagI64:
		return "I64"
	case TagU64:
		return "U64"
	case TagString:
		return "STR"
	case TagBuffer:
		return "BUF"
	case TagF32:
		return "F32"
	case TagF64:
		return "F64"
	case TagFD:
		return "FD"
	default:
		return "?"
	}
}
