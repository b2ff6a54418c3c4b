// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package varint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripBoundaries(t *testing.T) {
	cases := []struct {
		v    uint64
		want int
	}{
		{0, 1},
		{63, 1},
		{64, 2},
		{16383, 2},
		{16384, 4},
		{1<<30 - 1, 4},
		{1 << 30, 8},
		{1<<62 - 1, 8},
	}

	for _, c := range cases {
		buf := make([]byte, 8)
		n, err := Encode(c.v, buf)
		require.NoError(t, err)
		require.Equal(t, c.want, n)

		got, n2, err := Decode(buf[:n])
		require.NoError(t, err)
		require.Equal(t, n, n2)
		require.Equal(t, c.v, got)
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	_, _, err := Decode(nil)
	require.ErrorIs(t, err, ErrShortBuffer)

	buf := make([]byte, 8)
	Encode(16384, buf)
	_, _, err = Decode(buf[:2])
	require.ErrorIs(t, err, ErrShortBuffer)
}

func TestEncodeOutOfRange(t *testing.T) {
	buf := make([]byte, 8)
	_, err := Encode(1<<62, buf)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestAppend(t *testing.T) {
	var dst []byte
	dst = Append(dst, 17)
	dst = Append(dst, 16384)
	require.Len(t, dst, 1+4)
}
