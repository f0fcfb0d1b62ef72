// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	pomp "github.com/Parrot-Developers/libpomp-go"
)

func newMsgForArgs(t *testing.T, id uint32) (*pomp.Message, *pomp.Encoder) {
	t.Helper()
	msg := pomp.NewMessage()
	require.NoError(t, msg.Init(id))
	enc := pomp.NewEncoder()
	require.NoError(t, enc.Init(msg))
	return msg, enc
}

func decoderFor(t *testing.T, msg *pomp.Message) *pomp.Decoder {
	t.Helper()
	dec := pomp.NewDecoder()
	require.NoError(t, dec.Init(msg))
	return dec
}

func TestWriteArgsReadArgsRoundTrip(t *testing.T) {
	msg, enc := newMsgForArgs(t, 1)
	require.NoError(t, pomp.WriteArgs(enc, "%d%lu%hhd%hd%s%p%u%lf%x",
		int32(-7), uint64(42), int8(-1), int16(9), "hello", []byte{1, 2, 3}, float64(3.5), 5))
	require.NoError(t, msg.Finish())

	dec := decoderFor(t, msg)
	var (
		d   int32
		lu  uint64
		hhd int8
		hd  int16
		s   string
		buf []byte
		lf  float64
		fd  int
	)
	require.NoError(t, pomp.ReadArgs(dec, "%d%lu%hhd%hd%ms%p%u%lf%x",
		&d, &lu, &hhd, &hd, &s, &buf, &lf, &fd))
	require.Equal(t, int32(-7), d)
	require.Equal(t, uint64(42), lu)
	require.Equal(t, int8(-1), hhd)
	require.Equal(t, int16(9), hd)
	require.Equal(t, "hello", s)
	require.Equal(t, []byte{1, 2, 3}, buf)
	require.Equal(t, float64(3.5), lf)
	require.Equal(t, 5, fd)
}

func TestReadArgsRejectsBareS(t *testing.T) {
	msg, enc := newMsgForArgs(t, 2)
	require.NoError(t, enc.WriteString("x"))
	require.NoError(t, msg.Finish())

	dec := decoderFor(t, msg)
	var s string
	err := pomp.ReadArgs(dec, "%s", &s)
	require.ErrorIs(t, err, pomp.ErrInvalidArgument)
}

func TestWriteArgsRequiresPFollowedByU(t *testing.T) {
	msg, enc := newMsgForArgs(t, 3)
	err := pomp.WriteArgs(enc, "%p", []byte{1})
	require.ErrorIs(t, err, pomp.ErrInvalidArgument)
	_ = msg
}

func TestWriteArgsArgumentCountMismatch(t *testing.T) {
	_, enc := newMsgForArgs(t, 4)
	err := pomp.WriteArgs(enc, "%d%d", int32(1))
	require.ErrorIs(t, err, pomp.ErrInvalidArgument)

	_, enc2 := newMsgForArgs(t, 5)
	err = pomp.WriteArgs(enc2, "%d", int32(1), int32(2))
	require.ErrorIs(t, err, pomp.ErrInvalidArgument)
}

func TestWriteArgsFromStringsRoundTrip(t *testing.T) {
	msg, enc := newMsgForArgs(t, 6)
	require.NoError(t, pomp.WriteArgsFromStrings(enc, "%d%u%p%u%f", []string{
		"-12", "99", "0a0b0c", "3", "1.5",
	}))
	require.NoError(t, msg.Finish())

	dec := decoderFor(t, msg)
	var (
		d   int32
		u   uint32
		buf []byte
		f   float32
	)
	require.NoError(t, pomp.ReadArgs(dec, "%d%u%p%u%f", &d, &u, &buf, &f))
	require.Equal(t, int32(-12), d)
	require.Equal(t, uint32(99), u)
	require.Equal(t, []byte{0x0a, 0x0b, 0x0c}, buf)
	require.Equal(t, float32(1.5), f)
}

func TestWriteArgsFromStringsOddLengthHexPad(t *testing.T) {
	msg, enc := newMsgForArgs(t, 7)
	require.NoError(t, pomp.WriteArgsFromStrings(enc, "%p%u", []string{"abc", "2"}))
	require.NoError(t, msg.Finish())

	dec := decoderFor(t, msg)
	var buf []byte
	require.NoError(t, pomp.ReadArgs(dec, "%p%u", &buf))
	require.Equal(t, []byte{0x0a, 0xbc}, buf)
}

func TestWriteArgsFromStringsInvalidInteger(t *testing.T) {
	_, enc := newMsgForArgs(t, 8)
	err := pomp.WriteArgsFromStrings(enc, "%d", []string{"not-a-number"})
	require.ErrorIs(t, err, pomp.ErrInvalidArgument)
}

func TestWriteArgsWordSizeDependentL(t *testing.T) {
	msg, enc := newMsgForArgs(t, 9)
	require.NoError(t, pomp.WriteArgs(enc, "%ld", int64(123)))
	require.NoError(t, msg.Finish())

	dec := decoderFor(t, msg)
	if strconvIntSize64() {
		var v int64
		require.NoError(t, pomp.ReadArgs(dec, "%ld", &v))
		require.Equal(t, int64(123), v)
	} else {
		var v int32
		require.NoError(t, pomp.ReadArgs(dec, "%ld", &v))
		require.Equal(t, int32(123), v)
	}
}

func strconvIntSize64() bool {
	const uintSize = 32 << (^uint(0) >> 63)
	return uintSize == 64
}
