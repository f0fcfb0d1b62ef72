// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	pomp "github.com/Parrot-Developers/libpomp-go"
)

func TestMessageFDsRoundTrip(t *testing.T) {
	msg := pomp.NewMessage()
	require.NoError(t, msg.Init(1))
	enc := pomp.NewEncoder()
	require.NoError(t, enc.Init(msg))

	require.NoError(t, enc.WriteU32(1))
	require.NoError(t, enc.WriteFd(11))
	require.NoError(t, enc.WriteString("mid"))
	require.NoError(t, enc.WriteFd(22))
	require.NoError(t, msg.Finish())

	fds, err := msg.FDs()
	require.NoError(t, err)
	require.Equal(t, []int{11, 22}, fds)
}

// TestMessageAssignFDsFixesUpReceivedFrame simulates the connection read
// path: a frame arrives with its fd placeholders still holding the
// sender's local fd numbers, and AssignFDs re-points them at the
// receiver's own (distinct) fds carried out-of-band.
func TestMessageAssignFDsFixesUpReceivedFrame(t *testing.T) {
	sent := pomp.NewMessage()
	require.NoError(t, sent.Init(1))
	enc := pomp.NewEncoder()
	require.NoError(t, enc.Init(sent))
	require.NoError(t, enc.WriteU32(9))
	require.NoError(t, enc.WriteFd(3))
	require.NoError(t, enc.WriteFd(4))
	require.NoError(t, sent.Finish())

	data, err := sent.Serialize()
	require.NoError(t, err)

	proto := pomp.NewProtocol()
	_, received, err := proto.Decode(data)
	require.NoError(t, err)
	require.NotNil(t, received)

	require.NoError(t, received.AssignFDs([]int{101, 102}))

	fds, err := received.FDs()
	require.NoError(t, err)
	require.Equal(t, []int{101, 102}, fds)
}

func TestMessageAssignFDsClosesSurplus(t *testing.T) {
	msg := pomp.NewMessage()
	require.NoError(t, msg.Init(1))
	enc := pomp.NewEncoder()
	require.NoError(t, enc.Init(msg))
	require.NoError(t, enc.WriteFd(3))
	require.NoError(t, msg.Finish())

	err := msg.AssignFDs([]int{101, 102})
	require.NoError(t, err)
}

func TestMessageReleaseThenInitReuses(t *testing.T) {
	msg := pomp.NewMessage()
	require.NoError(t, msg.Init(1))
	msg.Release()
	require.Equal(t, uint32(0), msg.ID())
	require.False(t, msg.Finished())

	require.NoError(t, msg.Init(2))
	require.Equal(t, uint32(2), msg.ID())
}
