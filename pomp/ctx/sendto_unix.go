// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package ctx

import (
	"golang.org/x/sys/unix"

	pomp "github.com/Parrot-Developers/libpomp-go"
)

func sendto(fd int, data []byte, to *pomp.Addr) error {
	sa, _, err := toSockaddr(to)
	if err != nil {
		return err
	}
	return unix.Sendto(fd, data, 0, sa)
}
