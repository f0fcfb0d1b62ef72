// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	pkgerrors "github.com/pkg/errors"

	pomp "github.com/Parrot-Developers/libpomp-go"
)

// ErrNotConnected is returned by Send once Disconnect has been called.
// It is pomp.ErrNotConnected itself, so errors.Is works against either
// package's sentinel.
var ErrNotConnected = pomp.ErrNotConnected

// ErrNotFinished is returned by Send when passed an unsealed Message.
var ErrNotFinished = pkgerrors.New("pomp/conn: message not finished")
