// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	pomp "github.com/Parrot-Developers/libpomp-go"
)

func TestParseAddrInet(t *testing.T) {
	a, err := pomp.ParseAddr("inet:127.0.0.1:4242")
	require.NoError(t, err)
	require.Equal(t, "inet", a.Kind)
	require.Equal(t, 4242, a.Port)
	require.Equal(t, "inet:127.0.0.1:4242", a.String())
	require.False(t, a.IsUnix())
}

func TestParseAddrInet6(t *testing.T) {
	a, err := pomp.ParseAddr("inet6:[::1]:4242")
	require.NoError(t, err)
	require.Equal(t, "inet6", a.Kind)
	require.Equal(t, 4242, a.Port)
}

func TestParseAddrUnixPath(t *testing.T) {
	a, err := pomp.ParseAddr("unix:/tmp/pomp.sock")
	require.NoError(t, err)
	require.True(t, a.IsUnix())
	require.Equal(t, "/tmp/pomp.sock", a.Path)
	require.False(t, a.Abstract)
	require.Equal(t, "unix:/tmp/pomp.sock", a.String())
}

func TestParseAddrUnixAbstract(t *testing.T) {
	a, err := pomp.ParseAddr("unix:@myname")
	require.NoError(t, err)
	require.True(t, a.IsUnix())
	require.True(t, a.Abstract)
	require.Equal(t, "myname", a.Path)
	require.Equal(t, "unix:@myname", a.String())

	ua, err := a.UnixAddr()
	require.NoError(t, err)
	require.Equal(t, "@myname", ua.Name)
}

func TestParseAddrUnknownScheme(t *testing.T) {
	_, err := pomp.ParseAddr("ipx:foo")
	require.ErrorIs(t, err, pomp.ErrInvalidArgument)
}

func TestParseAddrEmptyUnix(t *testing.T) {
	_, err := pomp.ParseAddr("unix:")
	require.ErrorIs(t, err, pomp.ErrInvalidArgument)
}

func TestAddrTCPAddrRejectsUnix(t *testing.T) {
	a, err := pomp.ParseAddr("unix:/tmp/x.sock")
	require.NoError(t, err)
	_, err = a.TCPAddr()
	require.ErrorIs(t, err, pomp.ErrInvalidArgument)
}
