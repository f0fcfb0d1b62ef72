// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp

import (
	"encoding/binary"

	"github.com/Parrot-Developers/libpomp-go/internal/bo"
)

// littleEndian is the wire byte order: the frame header and every multi-byte
// integer/float argument is little-endian regardless of host.
var littleEndian = binary.LittleEndian

// nativeEndian is used only for the in-band fd placeholder slot, which is
// deliberately stored in host byte order (it is only ever meaningful on
// the local machine that sent it; the real fd value travels out-of-band as
// SCM_RIGHTS ancillary data). Everything else on the wire is little-endian
// regardless of host.
var nativeEndian = bo.Native()
