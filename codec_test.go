// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	pomp "github.com/Parrot-Developers/libpomp-go"
)

// TestCodecFullTypeRoundTrip writes one of every wire type into a message
// then decodes it back, asserting bitwise/byte-for-byte equality, per the
// "for every encode then decode pair" invariant.
func TestCodecFullTypeRoundTrip(t *testing.T) {
	msg := pomp.NewMessage()
	require.NoError(t, msg.Init(42))
	enc := pomp.NewEncoder()
	require.NoError(t, enc.Init(msg))

	require.NoError(t, enc.WriteI8(-1))
	require.NoError(t, enc.WriteU8(255))
	require.NoError(t, enc.WriteI16(-1000))
	require.NoError(t, enc.WriteU16(60000))
	require.NoError(t, enc.WriteI32(-100000))
	require.NoError(t, enc.WriteU32(4000000000))
	require.NoError(t, enc.WriteI64(-1 << 40))
	require.NoError(t, enc.WriteU64(1 << 50))
	require.NoError(t, enc.WriteString("hello, pomp"))
	require.NoError(t, enc.WriteBuffer([]byte{9, 8, 7, 6}))
	require.NoError(t, enc.WriteF32(3.5))
	require.NoError(t, enc.WriteF64(2.718281828))

	require.NoError(t, msg.Finish())
	require.True(t, msg.Finished())
	require.Equal(t, uint32(42), msg.ID())

	dec := pomp.NewDecoder()
	require.NoError(t, dec.Init(msg))

	i8, err := dec.ReadI8()
	require.NoError(t, err)
	require.Equal(t, int8(-1), i8)

	u8, err := dec.ReadU8()
	require.NoError(t, err)
	require.Equal(t, uint8(255), u8)

	i16, err := dec.ReadI16()
	require.NoError(t, err)
	require.Equal(t, int16(-1000), i16)

	u16, err := dec.ReadU16()
	require.NoError(t, err)
	require.Equal(t, uint16(60000), u16)

	i32, err := dec.ReadI32()
	require.NoError(t, err)
	require.Equal(t, int32(-100000), i32)

	u32, err := dec.ReadU32()
	require.NoError(t, err)
	require.Equal(t, uint32(4000000000), u32)

	i64, err := dec.ReadI64()
	require.NoError(t, err)
	require.Equal(t, int64(-1<<40), i64)

	u64, err := dec.ReadU64()
	require.NoError(t, err)
	require.Equal(t, uint64(1<<50), u64)

	s, err := dec.ReadString()
	require.NoError(t, err)
	require.Equal(t, "hello, pomp", s)

	buf, err := dec.ReadBuffer()
	require.NoError(t, err)
	require.Equal(t, []byte{9, 8, 7, 6}, buf)

	f32, err := dec.ReadF32()
	require.NoError(t, err)
	require.Equal(t, float32(3.5), f32)

	f64, err := dec.ReadF64()
	require.NoError(t, err)
	require.Equal(t, float64(2.718281828), f64)

	require.False(t, dec.More())
}

func TestSerializeParseRoundTrip(t *testing.T) {
	msg := pomp.NewMessage()
	require.NoError(t, msg.Init(7))
	enc := pomp.NewEncoder()
	require.NoError(t, enc.Init(msg))
	require.NoError(t, enc.WriteString("payload"))
	require.NoError(t, msg.Finish())

	data, err := msg.Serialize()
	require.NoError(t, err)

	proto := pomp.NewProtocol()
	n, got, err := proto.Decode(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NotNil(t, got)
	require.Equal(t, msg.ID(), got.ID())

	gotData, err := got.Serialize()
	require.NoError(t, err)
	require.Equal(t, data, gotData)
}

func TestEncoderRejectsWriteAfterFinish(t *testing.T) {
	msg := pomp.NewMessage()
	require.NoError(t, msg.Init(1))
	enc := pomp.NewEncoder()
	require.NoError(t, enc.Init(msg))
	require.NoError(t, enc.WriteU32(1))
	require.NoError(t, msg.Finish())

	err := enc.WriteU32(2)
	require.Error(t, err)
}

func TestCloneDuplicatesSealedMessage(t *testing.T) {
	msg := pomp.NewMessage()
	require.NoError(t, msg.Init(3))
	enc := pomp.NewEncoder()
	require.NoError(t, enc.Init(msg))
	require.NoError(t, enc.WriteU32(123))
	require.NoError(t, msg.Finish())

	clone, err := msg.Clone()
	require.NoError(t, err)
	require.Equal(t, msg.ID(), clone.ID())

	cloneData, err := clone.Serialize()
	require.NoError(t, err)
	origData, err := msg.Serialize()
	require.NoError(t, err)
	require.Equal(t, origData, cloneData)
}

func TestCloneRejectsOpenMessage(t *testing.T) {
	msg := pomp.NewMessage()
	require.NoError(t, msg.Init(3))
	_, err := msg.Clone()
	require.True(t, err == pomp.ErrInvalidArgument)
}
