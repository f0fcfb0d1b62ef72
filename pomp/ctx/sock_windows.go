// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build windows

package ctx

import (
	"os"

	pkgerrors "github.com/pkg/errors"

	pomp "github.com/Parrot-Developers/libpomp-go"
)

// Raw socket creation (accept4/connect-with-SO_ERROR/sendto to an
// unconnected peer) is POSIX-shaped and not ported to winsock here; see
// pomp/conn's Windows stub for the same limitation on the read/write path.
var errUnsupported = pkgerrors.New("pomp/ctx: not implemented on this platform")

func newListener(addr *pomp.Addr, mode os.FileMode) (int, error) { return -1, errUnsupported }
func newDgramSocket(addr *pomp.Addr) (int, error)                { return -1, errUnsupported }
func connectNonblock(addr *pomp.Addr) (int, bool, error)         { return -1, false, errUnsupported }
func checkConnectError(fd int) error                             { return errUnsupported }
func acceptNonblock(listenFd int) (int, *pomp.Addr, bool, error) { return -1, nil, false, errUnsupported }
func localAddr(fd int) *pomp.Addr                                { return nil }
func closeRawFd(fd int)                                          {}
func isUnixAddr(addr *pomp.Addr) bool                            { return false }
func sendto(fd int, data []byte, to *pomp.Addr) error             { return errUnsupported }
