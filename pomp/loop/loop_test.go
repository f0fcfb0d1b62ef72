// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package loop_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Parrot-Developers/libpomp-go/pomp/loop"
)

func TestAddDispatchesReadable(t *testing.T) {
	l, err := loop.New()
	require.NoError(t, err)
	defer l.Destroy()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	gotEvents := make(chan loop.Events, 1)
	require.NoError(t, l.Add(int(r.Fd()), loop.In, func(fd int, events loop.Events) {
		gotEvents <- events
	}))

	_, err = w.Write([]byte("hi"))
	require.NoError(t, err)

	require.NoError(t, l.WaitAndProcess(time.Second))
	select {
	case ev := <-gotEvents:
		require.True(t, ev.Has(loop.In))
	default:
		t.Fatal("callback was not invoked")
	}
}

func TestAddDuplicateFails(t *testing.T) {
	l, err := loop.New()
	require.NoError(t, err)
	defer l.Destroy()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	require.NoError(t, l.Add(int(r.Fd()), loop.In, func(int, loop.Events) {}))
	err = l.Add(int(r.Fd()), loop.In, func(int, loop.Events) {})
	require.ErrorIs(t, err, loop.ErrFdRegistered)
}

func TestRemoveThenUpdateFails(t *testing.T) {
	l, err := loop.New()
	require.NoError(t, err)
	defer l.Destroy()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	require.NoError(t, l.Add(int(r.Fd()), loop.In, func(int, loop.Events) {}))
	require.NoError(t, l.Remove(int(r.Fd())))
	require.ErrorIs(t, l.Update(int(r.Fd()), loop.Out), loop.ErrFdNotRegistered)
}

func TestWaitAndProcessTimesOut(t *testing.T) {
	l, err := loop.New()
	require.NoError(t, err)
	defer l.Destroy()

	require.ErrorIs(t, l.WaitAndProcess(10*time.Millisecond), loop.ErrTimedOut)
}

func TestIdleRunsOncePerPass(t *testing.T) {
	l, err := loop.New()
	require.NoError(t, err)
	defer l.Destroy()

	var order []int
	require.NoError(t, l.AddIdle(func() {
		order = append(order, 1)
		_ = l.AddIdle(func() { order = append(order, 2) })
	}))

	require.NoError(t, l.ProcessFD())
	require.Equal(t, []int{1}, order)

	require.NoError(t, l.ProcessFD())
	require.Equal(t, []int{1, 2}, order)
}

func TestIdleRemoveByCookieSkipsCallback(t *testing.T) {
	l, err := loop.New()
	require.NoError(t, err)
	defer l.Destroy()

	fired := false
	require.NoError(t, l.AddIdleCookie(func() { fired = true }, "cookie"))
	require.NoError(t, l.RemoveIdleCookie("cookie"))

	require.NoError(t, l.ProcessFD())
	require.False(t, fired)
}
