// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp

import (
	"encoding/hex"
	"strconv"

	pkgerrors "github.com/pkg/errors"
)

// WriteArgsFromStrings writes argv to the message through enc, following the
// same format grammar as WriteArgs, but with every argument given as a
// string (as they arrive from a command line): integers are parsed base-10,
// floats with best-effort parsing, and a %p%u pair takes its pointer
// argument as a hex string whose byte length is given by the following %u
// argv entry (an odd-length hex string is zero-padded in the first nibble).
func WriteArgsFromStrings(enc *Encoder, format string, argv []string) error {
	ai := 0
	next := func() (string, error) {
		if ai >= len(argv) {
			return "", pkgerrors.Wrap(ErrInvalidArgument, "pomp: missing argv argument")
		}
		s := argv[ai]
		ai++
		return s, nil
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
			s, err := next()
			if err != nil {
				return err
			}
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return pkgerrors.Wrapf(ErrInvalidArgument, "pomp: %q is not a valid integer", s)
			}
			if err := writeSignedWidth(enc, fl, n); err != nil {
				return err
			}

		case 'u':
			s, err := next()
			if err != nil {
				return err
			}
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return pkgerrors.Wrapf(ErrInvalidArgument, "pomp: %q is not a valid unsigned integer", s)
			}
			if err := writeUnsignedWidth(enc, fl, n); err != nil {
				return err
			}

		case 's':
			s, err := next()
			if err != nil {
				return err
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
			hexStr, err := next()
			if err != nil {
				return err
			}
			lenStr, err := next()
			if err != nil {
				return err
			}
			n, err := strconv.ParseUint(lenStr, 10, 32)
			if err != nil {
				return pkgerrors.Wrapf(ErrInvalidArgument, "pomp: %q is not a valid buffer length", lenStr)
			}
			b, err := parseHexBuffer(hexStr, int(n))
			if err != nil {
				return err
			}
			if err := enc.WriteBuffer(b); err != nil {
				return err
			}

		case 'f', 'F', 'e', 'E', 'g', 'G':
			if fl.ll || fl.h || fl.hh {
				return pkgerrors.Wrap(ErrInvalidArgument, "pomp: unsupported format width")
			}
			s, err := next()
			if err != nil {
				return err
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return pkgerrors.Wrapf(ErrInvalidArgument, "pomp: %q is not a valid float", s)
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
			s, err := next()
			if err != nil {
				return err
			}
			n, err := strconv.ParseInt(s, 0, 32)
			if err != nil {
				return pkgerrors.Wrapf(ErrInvalidArgument, "pomp: %q is not a valid file descriptor", s)
			}
			if err := enc.WriteFd(int(n)); err != nil {
				return err
			}

		default:
			return pkgerrors.Wrapf(ErrInvalidArgument, "pomp: invalid format specifier (%c)", conv)
		}
	}
	if ai != len(argv) {
		return pkgerrors.Wrap(ErrInvalidArgument, "pomp: argv count does not match format string")
	}
	return nil
}

// parseHexBuffer decodes s as hex-encoded bytes, zero-padding the first
// nibble if s has odd length, then truncates or rejects a short decode
// against the declared length n.
func parseHexBuffer(s string, n int) ([]byte, error) {
	if len(s)%2 != 0 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, pkgerrors.Wrapf(ErrInvalidArgument, "pomp: %q is not valid hex", s)
	}
	if len(b) < n {
		return nil, pkgerrors.Wrap(ErrInvalidArgument, "pomp: hex buffer shorter than declared length")
	}
	return b[:n], nil
}
