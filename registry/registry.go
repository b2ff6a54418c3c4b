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

// Package registry keys live sessions by their session id and freezes a
// session's id against reuse for a grace window after it closes, so a
// stray retransmitted packet for a torn-down session does not spawn a new
// one under a reused id.
package registry

import (
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/packetd/nghq/h3"
	"github.com/packetd/nghq/internal/ttlcache"
)

// defaultFreezeSeconds is the grace window a session id stays frozen after
// Delete. QUIC has no TIME_WAIT state of its own; this plays the same role
// for a handshake that is itself fabricated (spec.md §4.9).
const defaultFreezeSeconds = 4

// CreateSessionFunc builds a new *h3.Session for an id the registry has
// not seen, or has fully forgotten.
type CreateSessionFunc func(id []byte, role h3.Role, mode h3.Mode) *h3.Session

type entry struct {
	session   *h3.Session
	createdAt time.Time
}

// Registry is safe for concurrent use across the many goroutines a host
// may run, one per UDP flow, each driving its own *h3.Session.
type Registry struct {
	create CreateSessionFunc

	mut  sync.RWMutex
	live map[string]*entry

	frozen *ttlcache.Cache[string]
}

// New returns a Registry whose sessions are built by create and whose
// closed ids stay frozen for freezeSeconds (defaultFreezeSeconds if <= 0).
func New(create CreateSessionFunc, freezeSeconds int64) *Registry {
	if freezeSeconds <= 0 {
		freezeSeconds = defaultFreezeSeconds
	}
	return &Registry{
		create: create,
		live:   make(map[string]*entry),
		frozen: ttlcache.New[string](freezeSeconds),
	}
}

// GetOrCreate returns the live session keyed by id, creating one via the
// registered factory on first sight. ok is false if id is within its
// post-close freeze window; the caller should drop the datagram rather
// than spawn a session under a reused id.
func (r *Registry) GetOrCreate(id []byte, role h3.Role, mode h3.Mode) (sess *h3.Session, ok bool) {
	key := string(id)
	if r.frozen.Has(key) {
		return nil, false
	}

	r.mut.RLock()
	if e, found := r.live[key]; found {
		r.mut.RUnlock()
		return e.session, true
	}
	r.mut.RUnlock()

	r.mut.Lock()
	defer r.mut.Unlock()

	if e, found := r.live[key]; found {
		return e.session, true
	}

	sess = r.create(id, role, mode)
	r.live[key] = &entry{session: sess, createdAt: time.Now()}
	return sess, true
}

// Find returns the live session for id without creating one.
func (r *Registry) Find(id []byte) (*h3.Session, bool) {
	r.mut.RLock()
	defer r.mut.RUnlock()
	e, ok := r.live[string(id)]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mut.RLock()
	defer r.mut.RUnlock()
	return len(r.live)
}

// Snapshot returns every live session id, for the admin /sessions route.
func (r *Registry) Snapshot() [][]byte {
	r.mut.RLock()
	defer r.mut.RUnlock()
	out := make([][]byte, 0, len(r.live))
	for key := range r.live {
		out = append(out, []byte(key))
	}
	return out
}

// Delete closes and forgets the session keyed by id, freezing the key
// against reuse for the registry's grace window.
func (r *Registry) Delete(id []byte) error {
	key := string(id)

	r.mut.Lock()
	e, ok := r.live[key]
	if ok {
		delete(r.live, key)
	}
	r.mut.Unlock()

	if !ok {
		return nil
	}

	err := e.session.Close()
	e.session.Free()
	r.frozen.Set(key)
	return err
}

// RemoveExpired closes and forgets every session created more than d ago.
// It exists as a bulk backstop for hosts that sweep on an interval rather
// than reacting to a per-session idle timer fired by their own callback
// table; the core itself tracks no per-session last-activity clock (spec
// §5 keeps it single-threaded and caller-driven).
func (r *Registry) RemoveExpired(d time.Duration) error {
	cutoff := time.Now().Add(-d)

	r.mut.RLock()
	var stale [][]byte
	for key, e := range r.live {
		if e.createdAt.Before(cutoff) {
			stale = append(stale, []byte(key))
		}
	}
	r.mut.RUnlock()

	var result *multierror.Error
	for _, id := range stale {
		if err := r.Delete(id); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Clean tears down every live session and stops the freeze sweep. The
// Registry must not be used afterward.
func (r *Registry) Clean() error {
	r.mut.Lock()
	ids := make([][]byte, 0, len(r.live))
	for key := range r.live {
		ids = append(ids, []byte(key))
	}
	r.mut.Unlock()

	var result *multierror.Error
	for _, id := range ids {
		if err := r.Delete(id); err != nil {
			result = multierror.Append(result, err)
		}
	}
	r.frozen.Close()
	return result.ErrorOrNil()
}
