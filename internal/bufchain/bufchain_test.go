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

package bufchain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestInsertIdempotence covers the reassembly property: whatever order,
// duplication or overlap the chunks arrive in, as long as their union
// covers [0, N) with a final eos=true, the chain collapses to one complete
// segment of length N.
func TestInsertIdempotence(t *testing.T) {
	const n = 300
	full := make([]byte, n)
	for i := range full {
		full[i] = byte(i)
	}

	orders := [][]int{
		{0, 100, 200},
		{200, 0, 100},
		{100, 200, 0},
		{0, 0, 100, 100, 200, 200},
	}

	for _, order := range orders {
		c := &Chain{}
		for idx, start := range order {
			end := start + 100
			if end > n {
				end = n
			}
			eos := idx == len(order)-1 && end == n
			c.Insert(uint64(start), full[start:end], eos)
		}
		// ensure trailing eos landed even if duplicate chunks followed it
		c.Insert(uint64(n), nil, true)

		require.Equal(t, 1, c.Len(), "order=%v", order)
		seg := c.Front()
		require.Equal(t, uint64(0), seg.Offset)
		require.True(t, seg.Complete)
		require.Equal(t, full, seg.Buf)
	}
}

func TestInsertRandomShuffle(t *testing.T) {
	const n = 1000
	full := make([]byte, n)
	rand.Read(full)

	chunkSize := 37
	type chunk struct {
		off int
		b   []byte
	}
	var chunks []chunk
	for off := 0; off < n; off += chunkSize {
		end := off + chunkSize
		if end > n {
			end = n
		}
		chunks = append(chunks, chunk{off, full[off:end]})
	}
	rand.Shuffle(len(chunks), func(i, j int) { chunks[i], chunks[j] = chunks[j], chunks[i] })

	c := &Chain{}
	for i, ch := range chunks {
		c.Insert(uint64(ch.off), ch.b, false)
		if i == len(chunks)-1 {
			c.Insert(uint64(n), nil, true)
		}
	}

	require.Equal(t, 1, c.Len())
	require.Equal(t, full, c.Front().Buf)
	require.True(t, c.Front().Complete)
}

func TestTrimAndAppendCompactsConsumedPrefix(t *testing.T) {
	c := &Chain{}
	c.PushBack(New([]byte("hello"), false, 0))
	c.Front().SendPos = 3
	c.TrimAndAppend([]byte("world"), true)

	seg := c.Front()
	require.Equal(t, "loworld", string(seg.Buf))
	require.Equal(t, 0, seg.SendPos)
	require.True(t, seg.Complete)
}

func TestPopFront(t *testing.T) {
	c := &Chain{}
	require.Nil(t, c.PopFront())
	c.PushBack(New([]byte("a"), false, 0))
	c.PushBack(New([]byte("b"), false, 1))
	seg := c.PopFront()
	require.Equal(t, "a", string(seg.Buf))
	require.Equal(t, 1, c.Len())
}
