// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package loop_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Parrot-Developers/libpomp-go/pomp/loop"
)

func TestEventSignalCollapses(t *testing.T) {
	l, err := loop.New()
	require.NoError(t, err)
	defer l.Destroy()

	count := 0
	ev := loop.NewEvent()
	require.NoError(t, ev.Attach(l, func() { count++ }))
	defer ev.Detach()

	require.NoError(t, ev.Signal())
	require.NoError(t, ev.Signal())
	require.NoError(t, ev.Signal())

	_ = l.WaitAndProcess(50 * time.Millisecond)
	require.Equal(t, 1, count)
}

func TestEventClearPreventsDelivery(t *testing.T) {
	l, err := loop.New()
	require.NoError(t, err)
	defer l.Destroy()

	fired := false
	ev := loop.NewEvent()
	require.NoError(t, ev.Attach(l, func() { fired = true }))
	defer ev.Detach()

	require.NoError(t, ev.Signal())
	require.NoError(t, ev.Clear())
	_ = l.WaitAndProcess(20 * time.Millisecond)
	require.False(t, fired)
}

func TestEventAttachTwiceFails(t *testing.T) {
	l, err := loop.New()
	require.NoError(t, err)
	defer l.Destroy()

	ev := loop.NewEvent()
	require.NoError(t, ev.Attach(l, func() {}))
	err = ev.Attach(l, func() {})
	require.ErrorIs(t, err, loop.ErrBusy)
}

func TestEventIsAttached(t *testing.T) {
	l, err := loop.New()
	require.NoError(t, err)
	defer l.Destroy()

	ev := loop.NewEvent()
	require.False(t, ev.IsAttached(nil))
	require.NoError(t, ev.Attach(l, func() {}))
	require.True(t, ev.IsAttached(l))
	require.True(t, ev.IsAttached(nil))
	require.NoError(t, ev.Detach())
	require.False(t, ev.IsAttached(nil))
}
