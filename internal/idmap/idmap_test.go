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

package idmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAscendingOrderIndependentOfInsertOrder(t *testing.T) {
	m := New[string]()
	m.Add(12, nil, "b")
	m.Add(0, nil, "a")
	m.Add(4, nil, "aa")
	m.Add(400, nil, "c")

	require.Equal(t, []uint64{0, 4, 12, 400}, m.Ascending())
	require.Equal(t, 4, m.Len())
}

func TestFindAndRemove(t *testing.T) {
	m := New[int]()
	m.Add(1, "handle-1", 100)
	m.Add(2, "handle-2", 200)

	v, ok := m.Find(1)
	require.True(t, ok)
	require.Equal(t, 100, v)

	id, v, ok := m.FindByHandle("handle-2")
	require.True(t, ok)
	require.Equal(t, uint64(2), id)
	require.Equal(t, 200, v)

	m.Remove(1)
	_, ok = m.Find(1)
	require.False(t, ok)
	require.Equal(t, []uint64{2}, m.Ascending())

	_, _, ok = m.FindByHandle("handle-1")
	require.False(t, ok)
}

func TestNextIterator(t *testing.T) {
	m := New[int]()
	m.Add(0, nil, 0)
	m.Add(4, nil, 4)
	m.Add(8, nil, 8)

	id, _, ok := m.Next(0)
	require.True(t, ok)
	require.Equal(t, uint64(4), id)

	id, _, ok = m.Next(4)
	require.True(t, ok)
	require.Equal(t, uint64(8), id)

	_, _, ok = m.Next(8)
	require.False(t, ok)
}
