// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp_test

import (
	"errors"
	"testing"

	pomp "github.com/Parrot-Developers/libpomp-go"
)

func TestErrorSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		pomp.ErrInvalidArgument,
		pomp.ErrPermissionDenied,
		pomp.ErrNotConnected,
		pomp.ErrBusy,
		pomp.ErrNotFound,
		pomp.ErrResourceExhausted,
		pomp.ErrTimedOut,
		pomp.ErrTooLong,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			if errors.Is(a, b) {
				t.Fatalf("sentinel %d (%v) unexpectedly matches sentinel %d (%v)", i, a, j, b)
			}
		}
	}
}

func TestErrorSentinelsSurviveWrap(t *testing.T) {
	wrapped := errors.New("accept: " + pomp.ErrBusy.Error())
	if errors.Is(wrapped, pomp.ErrBusy) {
		t.Fatalf("plain string concatenation should not satisfy errors.Is")
	}

	fmtWrapped := fmtWrap(pomp.ErrBusy)
	if !errors.Is(fmtWrapped, pomp.ErrBusy) {
		t.Fatalf("%%w-wrapped error should satisfy errors.Is against pomp.ErrBusy")
	}
}

func fmtWrap(err error) error {
	return &wrapErr{msg: "listen", err: err}
}

type wrapErr struct {
	msg string
	err error
}

func (w *wrapErr) Error() string { return w.msg + ": " + w.err.Error() }
func (w *wrapErr) Unwrap() error { return w.err }
