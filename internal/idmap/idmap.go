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

// Package idmap implements the ordered stream-id / push-id lookup table: a
// mapping keyed by a 64-bit identifier that also supports reverse lookup by
// an opaque user handle and ascending iteration for the send scheduler's
// fairness order.
package idmap

import "sort"

// Map is an ordered mapping from a 64-bit identifier to a value V, with a
// secondary reverse index by opaque handle. It is not safe for concurrent
// use; callers serialise access the same way the owning session does.
type Map[V any] struct {
	entries map[uint64]V
	handles map[any]uint64
	keys    []uint64 // always sorted ascending
}

// New constructs an empty Map.
func New[V any]() *Map[V] {
	return &Map[V]{
		entries: make(map[uint64]V),
		handles: make(map[any]uint64),
	}
}

// Add inserts or replaces the entry for id. handle may be nil if the caller
// has no reverse-lookup key for this entry.
func (m *Map[V]) Add(id uint64, handle any, v V) {
	if _, ok := m.entries[id]; !ok {
		i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= id })
		m.keys = append(m.keys, 0)
		copy(m.keys[i+1:], m.keys[i:])
		m.keys[i] = id
	}
	m.entries[id] = v
	if handle != nil {
		m.handles[handle] = id
	}
}

// Find returns the value stored for id.
func (m *Map[V]) Find(id uint64) (V, bool) {
	v, ok := m.entries[id]
	return v, ok
}

// Remove deletes the entry for id, along with any handle pointing to it.
func (m *Map[V]) Remove(id uint64) {
	if _, ok := m.entries[id]; !ok {
		return
	}
	delete(m.entries, id)

	i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= id })
	if i < len(m.keys) && m.keys[i] == id {
		m.keys = append(m.keys[:i], m.keys[i+1:]...)
	}
	for h, hid := range m.handles {
		if hid == id {
			delete(m.handles, h)
		}
	}
}

// FindByHandle performs the reverse lookup from an opaque user handle back
// to its id and value.
func (m *Map[V]) FindByHandle(handle any) (uint64, V, bool) {
	id, ok := m.handles[handle]
	if !ok {
		var zero V
		return 0, zero, false
	}
	v := m.entries[id]
	return id, v, true
}

// Ascending returns the live ids in ascending order. The scheduler relies
// on this order for its lowest-id-first fairness policy.
func (m *Map[V]) Ascending() []uint64 {
	return m.keys
}

// Len returns the number of live entries.
func (m *Map[V]) Len() int {
	return len(m.keys)
}

// Next returns the smallest live id strictly greater than prev, implementing
// the forward iterator(prev) operation from the spec.
func (m *Map[V]) Next(prev uint64) (uint64, V, bool) {
	i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] > prev })
	if i == len(m.keys) {
		var zero V
		return 0, zero, false
	}
	id := m.keys[i]
	return id, m.entries[id], true
}
