// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	pomp "github.com/Parrot-Developers/libpomp-go"
)

func TestNewBufferInvariants(t *testing.T) {
	b := pomp.NewBuffer(100)
	require.Equal(t, 0, b.Len())
	require.GreaterOrEqual(t, b.Capacity(), 100)
	require.EqualValues(t, 1, b.RefCount())
}

func TestBufferSharedIsReadOnly(t *testing.T) {
	b := pomp.NewBuffer(16)
	require.NoError(t, b.Write(0, []byte("hello")))
	b.Ref()
	require.True(t, b.IsShared())

	before := b.Len()
	err := b.Write(0, []byte("x"))
	require.True(t, errors.Is(err, pomp.ErrPermissionDenied))
	require.Equal(t, before, b.Len())

	err = b.SetLen(0)
	require.True(t, errors.Is(err, pomp.ErrPermissionDenied))

	err = b.EnsureCapacity(1000)
	require.True(t, errors.Is(err, pomp.ErrPermissionDenied))

	b.Unref()
	require.False(t, b.IsShared())
	require.NoError(t, b.Write(0, []byte("y")))
}

func TestBufferWriteReadRoundTrip(t *testing.T) {
	b := pomp.NewBuffer(0)
	pos, err := b.Append([]byte("abcdef"))
	require.NoError(t, err)
	require.Equal(t, 0, pos)

	out := make([]byte, 6)
	n, err := b.Read(0, out)
	require.NoError(t, err)
	require.Equal(t, 6, n)
	require.Equal(t, "abcdef", string(out))
}

func TestBufferEnsureCapacityAlignment(t *testing.T) {
	b := pomp.NewBuffer(0)
	require.NoError(t, b.EnsureCapacity(1))
	require.Equal(t, 256, b.Capacity())
	require.NoError(t, b.EnsureCapacity(257))
	require.Equal(t, 512, b.Capacity())
}

func TestBufferFDTableExhaustion(t *testing.T) {
	b := pomp.NewBuffer(64)
	require.NoError(t, b.SetLen(64))
	for i := 0; i < pomp.MaxFDs; i++ {
		require.NoError(t, b.WriteFd(i*4, 3+i))
	}
	err := b.WriteFd(pomp.MaxFDs*4, 99)
	require.True(t, errors.Is(err, pomp.ErrResourceExhausted))
	require.Equal(t, pomp.MaxFDs, b.FDCount())
}

func TestBufferWriteFdRejectsNegative(t *testing.T) {
	b := pomp.NewBuffer(16)
	require.NoError(t, b.SetLen(16))
	err := b.WriteFd(0, -1)
	require.True(t, errors.Is(err, pomp.ErrInvalidArgument))
}

func TestBufferCReadIsBoundsChecked(t *testing.T) {
	b := pomp.NewBuffer(0)
	_, err := b.Append([]byte("abc"))
	require.NoError(t, err)

	got, err := b.CRead(0, 3)
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))

	_, err = b.CRead(1, 10)
	require.True(t, errors.Is(err, pomp.ErrInvalidArgument))
}
