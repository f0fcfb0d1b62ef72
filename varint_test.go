// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp

import "testing"

func TestPutReadUvarintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 1 << 20, 1<<63 - 1, ^uint64(0)}
	for _, v := range cases {
		buf := putUvarint(nil, v)
		got, n, err := readUvarint(buf)
		if err != nil {
			t.Fatalf("v=%d: %v", v, err)
		}
		if n != len(buf) {
			t.Fatalf("v=%d: consumed %d want %d", v, n, len(buf))
		}
		if got != v {
			t.Fatalf("v=%d: got %d", v, got)
		}
	}
}

func TestReadUvarintTruncated(t *testing.T) {
	buf := putUvarint(nil, 1<<20)
	_, _, err := readUvarint(buf[:len(buf)-1])
	if err != ErrInvalidArgument {
		t.Fatalf("err=%v want ErrInvalidArgument", err)
	}
}

func TestReadUvarintTooLong(t *testing.T) {
	// 11 bytes, each with the continuation bit set: longer than maxVarintLen.
	buf := make([]byte, 11)
	for i := range buf {
		buf[i] = 0x80
	}
	_, _, err := readUvarint(buf)
	if err != ErrTooLong {
		t.Fatalf("err=%v want ErrTooLong", err)
	}
}

func TestZigzag32RoundTrip(t *testing.T) {
	cases := []int32{0, 1, -1, 2147483647, -2147483648, 42, -42}
	for _, v := range cases {
		if got := zigzagDecode32(zigzagEncode32(v)); got != v {
			t.Fatalf("v=%d: got %d", v, got)
		}
	}
}

func TestZigzag64RoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 9223372036854775807, -9223372036854775808, 42, -42}
	for _, v := range cases {
		if got := zigzagDecode64(zigzagEncode64(v)); got != v {
			t.Fatalf("v=%d: got %d", v, got)
		}
	}
}
