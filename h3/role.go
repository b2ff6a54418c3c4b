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

package h3

import "container/list"

// promiseRole distinguishes the two halves of a push's lifecycle: the
// PUSH_PROMISE frame that allocates it on the parent stream, and the push
// stream whose first HEADERS block materialises it.
type promiseRole int

const (
	roleAllocated promiseRole = iota
	roleMaterialized
)

// promiseObject is one half of a push pairing, carrying the push id both
// halves are matched on.
type promiseObject struct {
	role   promiseRole
	pushID uint64
	obj    any
}

// promisePair is a completed allocation/materialisation match.
type promisePair struct {
	allocated    *promiseObject
	materialized *promiseObject
}

// promiseMatcher pairs a PUSH_PROMISE allocation with the push stream that
// later materialises it, tolerating either order of arrival: a server may
// finish sending the pushed response before the client has processed the
// promise, or vice versa. Unmatched entries older than size are evicted to
// bound memory under a server that never follows through on a promise.
type promiseMatcher struct {
	l    *list.List
	size int
}

func newPromiseMatcher(size int) *promiseMatcher {
	return &promiseMatcher{l: list.New(), size: size}
}

func (m *promiseMatcher) match(o *promiseObject) *promisePair {
	for e := m.l.Front(); e != nil; e = e.Next() {
		other := e.Value.(*promiseObject)
		if other.pushID != o.pushID || other.role == o.role {
			continue
		}
		m.l.Remove(e)
		if o.role == roleAllocated {
			return &promisePair{allocated: o, materialized: other}
		}
		return &promisePair{allocated: other, materialized: o}
	}

	if m.l.Len() >= m.size {
		m.l.Remove(m.l.Front())
	}
	m.l.PushBack(o)
	return nil
}
