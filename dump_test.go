// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	pomp "github.com/Parrot-Developers/libpomp-go"
)

func TestDumpRendersEveryArgument(t *testing.T) {
	msg := pomp.NewMessage()
	require.NoError(t, msg.Init(5))
	enc := pomp.NewEncoder()
	require.NoError(t, enc.Init(msg))
	require.NoError(t, enc.WriteU32(7))
	require.NoError(t, enc.WriteString("hi"))
	require.NoError(t, enc.WriteBuffer([]byte{1, 2}))
	require.NoError(t, msg.Finish())

	s, err := pomp.Dump(msg)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(s, "{ID:5"))
	require.Contains(t, s, "U32:7")
	require.Contains(t, s, "STR:'hi'")
	require.Contains(t, s, "BUF:")
	require.True(t, strings.HasSuffix(s, "}"))
}

func TestDumpTruncTruncatesWithEllipsis(t *testing.T) {
	msg := pomp.NewMessage()
	require.NoError(t, msg.Init(1))
	enc := pomp.NewEncoder()
	require.NoError(t, enc.Init(msg))
	require.NoError(t, enc.WriteString("a fairly long string value to dump"))
	require.NoError(t, msg.Finish())

	full, err := pomp.Dump(msg)
	require.NoError(t, err)

	trunc, err := pomp.DumpTrunc(msg, 16)
	require.NoError(t, err)
	require.Less(t, len(trunc), len(full))
	require.True(t, strings.HasSuffix(trunc, "...}"))
}
