// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp

import (
	"strconv"

	pkgerrors "github.com/pkg/errors"
)

// fmtFlags mirrors the width/length modifiers a format specifier can carry.
// At most one of l/ll and one of h/hh is meaningful; m only applies to %s
// on read.
type fmtFlags struct {
	l, ll, h, hh, m bool
}

// parseFlags consumes modifier characters (l, ll, h, hh, m) starting at
// fmt[pos], returning the resulting flags and the position of the
// conversion character itself.
func parseFlags(fmt string, pos int) (fmtFlags, int) {
	var fl fmtFlags
	for pos < len(fmt) {
		switch fmt[pos] {
		case 'l':
			if pos+1 < len(fmt) && fmt[pos+1] == 'l' {
				fl.ll = true
				pos += 2
			} else {
				fl.l = true
				pos++
			}
		case 'h':
			if pos+1 < len(fmt) && fmt[pos+1] == 'h' {
				fl.hh = true
				pos += 2
			} else {
				fl.h = true
				pos++
			}
		case 'm':
			fl.m = true
			pos++
		default:
			return fl, pos
		}
	}
	return fl, pos
}

// wordSize64 is true when the host's native int/long is 64 bits wide, used
// to resolve the %l modifier on d/i/u the same way the original C code
// resolves it via __WORDSIZE: on a 32-bit host, %l integers stay 32-bit.
const wordSize64 = strconv.IntSize == 64

// WriteArgs writes a sequence of arguments to the message through enc,
// following a printf-style format string. The grammar supports:
//
//	%d %i        int32 (add l for int64 on 64-bit hosts, ll always int64,
//	             h for int16, hh for int8)
//	%u           uint32 (same width modifiers as %d/%i)
//	%s           string (argument is a string)
//	%p%u         buffer: a []byte argument, written as a single length-
//	             prefixed buffer (the %u is mandatory and consumed, but
//	             does not itself take an argument)
//	%f %F %e %E %g %G  float32 (add l for float64)
//	%x           file descriptor (int argument)
//
// The number of '%' conversions must match len(args) exactly.
func WriteArgs(enc *Encoder, format string, args ...interface{}) error {
	ai := 0
	next := func() (interface{}, error) {
		if ai >= len(args) {
			return nil, pkgerrors.Wrap(ErrInvalidArgument, "pomp: not enough arguments for format string")
		}
		v := args[ai]
		ai++
		return v, nil
	}

	i := 0
	for i < len(format) {
		c := format[i]
		i++
		if c != '%' {
			continue
		}
		if i >= len(format) {
			return pkgerrors.Wrap(ErrInvalidArgument, "pomp: dangling %% at end of format string")
		}
		fl, convPos := parseFlags(format, i)
		if convPos >= len(format) {
			return pkgerrors.Wrap(ErrInvalidArgument, "pomp: missing conversion specifier")
		}
		conv := format[convPos]
		i = convPos + 1

		switch conv {
		case 'd', 'i':
			v, err := next()
			if err != nil {
				return err
			}
			n, err := toInt64(v)
			if err != nil {
				return err
			}
			if err := writeSignedWidth(enc, fl, n); err != nil {
				return err
			}

		case 'u':
			v, err := next()
			if err != nil {
				return err
			}
			n, err := toUint64(v)
			if err != nil {
				return err
			}
			if err := writeUnsignedWidth(enc, fl, n); err != nil {
				return err
			}

		case 's':
			v, err := next()
			if err != nil {
				return err
			}
			s, ok := v.(string)
			if !ok {
				return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %s expects a string argument")
			}
			if err := enc.WriteString(s); err != nil {
				return err
			}

		case 'p':
			if convPos+1 >= len(format) || format[convPos+1] != '%' ||
				convPos+2 >= len(format) || format[convPos+2] != 'u' {
				return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %p must be followed by %u")
			}
			i = convPos + 3
			v, err := next()
			if err != nil {
				return err
			}
			b, ok := v.([]byte)
			if !ok {
				return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %p%u expects a []byte argument")
			}
			if err := enc.WriteBuffer(b); err != nil {
				return err
			}

		case 'f', 'F', 'e', 'E', 'g', 'G':
			if fl.ll || fl.h || fl.hh {
				return pkgerrors.Wrap(ErrInvalidArgument, "pomp: unsupported format width")
			}
			v, err := next()
			if err != nil {
				return err
			}
			f, err := toFloat64(v)
			if err != nil {
				return err
			}
			if fl.l {
				if err := enc.WriteF64(f); err != nil {
					return err
				}
			} else {
				if err := enc.WriteF32(float32(f)); err != nil {
					return err
				}
			}

		case 'x':
			if fl.ll || fl.l || fl.h || fl.hh {
				return pkgerrors.Wrap(ErrInvalidArgument, "pomp: unsupported format width")
			}
			v, err := next()
			if err != nil {
				return err
			}
			fd, err := toInt64(v)
			if err != nil {
				return err
			}
			if err := enc.WriteFd(int(fd)); err != nil {
				return err
			}

		default:
			return pkgerrors.Wrapf(ErrInvalidArgument, "pomp: invalid format specifier (%c)", conv)
		}
	}
	if ai != len(args) {
		return pkgerrors.Wrap(ErrInvalidArgument, "pomp: too many arguments for format string")
	}
	return nil
}

func writeSignedWidth(enc *Encoder, fl fmtFlags, n int64) error {
	switch {
	case fl.ll:
		return enc.WriteI64(n)
	case fl.l:
		if wordSize64 {
			return enc.WriteI64(n)
		}
		return enc.WriteI32(int32(n))
	case fl.hh:
		return enc.WriteI8(int8(n))
	case fl.h:
		return enc.WriteI16(int16(n))
	default:
		return enc.WriteI32(int32(n))
	}
}

func writeUnsignedWidth(enc *Encoder, fl fmtFlags, n uint64) error {
	switch {
	case fl.ll:
		return enc.WriteU64(n)
	case fl.l:
		if wordSize64 {
			return enc.WriteU64(n)
		}
		return enc.WriteU32(uint32(n))
	case fl.hh:
		return enc.WriteU8(uint8(n))
	case fl.h:
		return enc.WriteU16(uint16(n))
	default:
		return enc.WriteU32(uint32(n))
	}
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	default:
		return 0, pkgerrors.Wrap(ErrInvalidArgument, "pomp: expected an integer argument")
	}
}

func toUint64(v interface{}) (uint64, error) {
	n, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}

func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, pkgerrors.Wrap(ErrInvalidArgument, "pomp: expected a float argument")
	}
}

// ReadArgs reads a sequence of values from the message through dec into the
// pointer arguments, following the same format grammar as WriteArgs. Unlike
// the C original, %s is rejected on read: use %ms, which allocates and
// assigns a new string into a *string argument (there's no separate
// "dynamically allocated" representation to track in Go — every Go string
// read is already an owned copy).
func ReadArgs(dec *Decoder, format string, args ...interface{}) error {
	ai := 0
	next := func() (interface{}, error) {
		if ai >= len(args) {
			return nil, pkgerrors.Wrap(ErrInvalidArgument, "pomp: not enough arguments for format string")
		}
		v := args[ai]
		ai++
		return v, nil
	}

	i := 0
	for i < len(format) {
		c := format[i]
		i++
		if c != '%' {
			continue
		}
		if i >= len(format) {
			return pkgerrors.Wrap(ErrInvalidArgument, "pomp: dangling %% at end of format string")
		}
		fl, convPos := parseFlags(format, i)
		if convPos >= len(format) {
			return pkgerrors.Wrap(ErrInvalidArgument, "pomp: missing conversion specifier")
		}
		conv := format[convPos]
		i = convPos + 1

		switch conv {
		case 'd', 'i':
			v, err := next()
			if err != nil {
				return err
			}
			if err := readSignedWidth(dec, fl, v); err != nil {
				return err
			}

		case 'u':
			v, err := next()
			if err != nil {
				return err
			}
			if err := readUnsignedWidth(dec, fl, v); err != nil {
				return err
			}

		case 's':
			if !fl.m {
				return pkgerrors.Wrap(ErrInvalidArgument, "pomp: use %ms instead of %s on read")
			}
			v, err := next()
			if err != nil {
				return err
			}
			p, ok := v.(*string)
			if !ok {
				return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %ms expects a *string argument")
			}
			s, err := dec.ReadString()
			if err != nil {
				return err
			}
			*p = s

		case 'p':
			if convPos+1 >= len(format) || format[convPos+1] != '%' ||
				convPos+2 >= len(format) || format[convPos+2] != 'u' {
				return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %p must be followed by %u")
			}
			i = convPos + 3
			v, err := next()
			if err != nil {
				return err
			}
			p, ok := v.(*[]byte)
			if !ok {
				return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %p%u expects a *[]byte argument")
			}
			b, err := dec.ReadBuffer()
			if err != nil {
				return err
			}
			*p = b

		case 'f', 'F', 'e', 'E', 'g', 'G':
			if fl.ll || fl.h || fl.hh {
				return pkgerrors.Wrap(ErrInvalidArgument, "pomp: unsupported format width")
			}
			v, err := next()
			if err != nil {
				return err
			}
			if fl.l {
				p, ok := v.(*float64)
				if !ok {
					return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %lf expects a *float64 argument")
				}
				f, err := dec.ReadF64()
				if err != nil {
					return err
				}
				*p = f
			} else {
				p, ok := v.(*float32)
				if !ok {
					return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %f expects a *float32 argument")
				}
				f, err := dec.ReadF32()
				if err != nil {
					return err
				}
				*p = f
			}

		case 'x':
			if fl.ll || fl.l || fl.h || fl.hh {
				return pkgerrors.Wrap(ErrInvalidArgument, "pomp: unsupported format width")
			}
			v, err := next()
			if err != nil {
				return err
			}
			p, ok := v.(*int)
			if !ok {
				return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %x expects a *int argument")
			}
			fd, err := dec.ReadFd()
			if err != nil {
				return err
			}
			*p = fd

		default:
			return pkgerrors.Wrapf(ErrInvalidArgument, "pomp: invalid format specifier (%c)", conv)
		}
	}
	if ai != len(args) {
		return pkgerrors.Wrap(ErrInvalidArgument, "pomp: too many arguments for format string")
	}
	return nil
}

func readSignedWidth(dec *Decoder, fl fmtFlags, dst interface{}) error {
	switch {
	case fl.ll:
		p, ok := dst.(*int64)
		if !ok {
			return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %lld expects a *int64 argument")
		}
		v, err := dec.ReadI64()
		if err != nil {
			return err
		}
		*p = v
		return nil
	case fl.l:
		if wordSize64 {
			p, ok := dst.(*int64)
			if !ok {
				return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %ld expects a *int64 argument on this platform")
			}
			v, err := dec.ReadI64()
			if err != nil {
				return err
			}
			*p = v
			return nil
		}
		p, ok := dst.(*int32)
		if !ok {
			return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %ld expects a *int32 argument on this platform")
		}
		v, err := dec.ReadI32()
		if err != nil {
			return err
		}
		*p = v
		return nil
	case fl.hh:
		p, ok := dst.(*int8)
		if !ok {
			return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %hhd expects a *int8 argument")
		}
		v, err := dec.ReadI8()
		if err != nil {
			return err
		}
		*p = v
		return nil
	case fl.h:
		p, ok := dst.(*int16)
		if !ok {
			return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %hd expects a *int16 argument")
		}
		v, err := dec.ReadI16()
		if err != nil {
			return err
		}
		*p = v
		return nil
	default:
		p, ok := dst.(*int32)
		if !ok {
			return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %d expects a *int32 argument")
		}
		v, err := dec.ReadI32()
		if err != nil {
			return err
		}
		*p = v
		return nil
	}
}

func readUnsignedWidth(dec *Decoder, fl fmtFlags, dst interface{}) error {
	switch {
	case fl.ll:
		p, ok := dst.(*uint64)
		if !ok {
			return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %llu expects a *uint64 argument")
		}
		v, err := dec.ReadU64()
		if err != nil {
			return err
		}
		*p = v
		return nil
	case fl.l:
		if wordSize64 {
			p, ok := dst.(*uint64)
			if !ok {
				return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %lu expects a *uint64 argument on this platform")
			}
			v, err := dec.ReadU64()
			if err != nil {
				return err
			}
			*p = v
			return nil
		}
		p, ok := dst.(*uint32)
		if !ok {
			return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %lu expects a *uint32 argument on this platform")
		}
		v, err := dec.ReadU32()
		if err != nil {
			return err
		}
		*p = v
		return nil
	case fl.hh:
		p, ok := dst.(*uint8)
		if !ok {
			return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %hhu expects a *uint8 argument")
		}
		v, err := dec.ReadU8()
		if err != nil {
			return err
		}
		*p = v
		return nil
	case fl.h:
		p, ok := dst.(*uint16)
		if !ok {
			return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %hu expects a *uint16 argument")
		}
		v, err := dec.ReadU16()
		if err != nil {
			return err
		}
		*p = v
		return nil
	default:
		p, ok := dst.(*uint32)
		if !ok {
			return pkgerrors.Wrap(ErrInvalidArgument, "pomp: %u expects a *uint32 argument")
		}
		v, err := dec.ReadU32()
		if err != nil {
			return err
		}
		*p = v
		return nil
	}
}

