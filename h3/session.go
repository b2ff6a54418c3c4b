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

// Package h3 implements the HTTP/3-over-QUIC session engine: frame codec,
// header-compression adapter, per-stream state machines, the out-of-order
// reassembly engine, the send scheduler and the multicast handshake
// forger. It drives and is driven by an external, single-threaded host:
// callers must serialise calls into a given Session.
package h3

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/packetd/nghq/internal/idmap"
)

// Role distinguishes which end of the session this process is.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

// Mode selects the bearer this session runs over.
type Mode int

const (
	ModeUnicast Mode = iota
	ModeMulticast
)

// Wire-level constants (spec §6).
const (
	MaxBytesInFlight        = 14600
	MinStreamPacketOverhead = 27
	BufferReadSize          = 4096

	transportParamsInitialSize = 128
	transportParamsMaxSize     = 512
)

// Multicast-mode fixed limits (spec §6).
const (
	MulticastMaxUniStreamID    = 0x3ffffffd
	multicastInitialMaxUni     = 0x3fffffff
	multicastInitialMaxBidi    = 4
)

// HeaderFlags qualify an OnHeaders callback invocation.
type HeaderFlags uint8

const (
	FlagEndRequest HeaderFlags = 1 << iota
	FlagTrailers
)

// DataFlags qualify an OnDataRecv callback invocation.
type DataFlags uint8

const (
	FlagEndData DataFlags = 1 << iota
)

// Callbacks is the host's required entry-point table (spec §6). All calls
// are synchronous and made inline from within Recv/Send.
type Callbacks interface {
	Recv(buf []byte) (int, error)
	Send(buf []byte) (int, error)
	OnBeginHeaders(streamUser any)
	OnHeaders(flags HeaderFlags, hdr []HeaderField, streamUser any)
	OnDataRecv(flags DataFlags, data []byte, offset uint64, streamUser any)
	OnBeginPromise(parentStreamUser, promiseUser any)
	OnRequestClose(status Kind, streamUser any)
}

// TimerCallbacks is the optional timer capability (spec §9: "the core must
// tolerate null/absent optional hooks"). A Callbacks implementation that
// does not also implement TimerCallbacks runs purely reactively under the
// caller's own clock; timer-driven recovery (loss detection, ACK delay) is
// disabled.
type TimerCallbacks interface {
	SetTimer(seconds float64, fire func()) (handle any)
	ResetTimer(handle any, seconds float64)
	CancelTimer(handle any)
}

// promise tracks a server push from allocation through materialisation.
type promise struct {
	pushID         uint64
	parentStreamID uint64
	promiseUser    any
	materialized   bool
}

type timerSlot struct {
	handle any
	active bool
}

// Session is the top-level per-connection object (spec §3).
type Session struct {
	role Role
	mode Mode
	id   []byte

	handshakeComplete bool

	maxConcurrentRequests uint64
	maxConcurrentPushes   uint64
	maxPushPromise        uint64
	nextPushID            uint64

	outbound bufchainQueue // raw packets staged for the send callback
	inbound  bufchainQueue // raw packets staged for the engine to read

	streams  *idmap.Map[*Stream]
	promises *idmap.Map[*promise]
	pushMatcher *promiseMatcher

	hdrCtx *HeaderContext
	engine TransportEngine

	lossTimer timerSlot
	ackTimer  timerSlot

	lastRemotePktNum uint64

	callbacks Callbacks
	userHandle any

	closed bool

	metrics *sessionMetrics
}

// sessionMetrics are the Prometheus collectors a session updates as it
// runs; nil-safe so Sessions built without a registry still work.
type sessionMetrics struct {
	bytesInFlight prometheus.Gauge
	pushesTotal   prometheus.Counter
}

// Option configures a Session at construction time.
type Option func(*Session)

// WithMetrics attaches Prometheus collectors, as controller/metrics.go
// does for the rest of this repository's counters and gauges.
func WithMetrics(bytesInFlight prometheus.Gauge, pushesTotal prometheus.Counter) Option {
	return func(s *Session) {
		s.metrics = &sessionMetrics{bytesInFlight: bytesInFlight, pushesTotal: pushesTotal}
	}
}

// NewSession constructs a Session for the given role/mode pair, wiring it
// to a transport engine and a host callback table. sessionID is the raw
// (already hex-decoded) connection identifier.
func NewSession(role Role, mode Mode, sessionID []byte, engine TransportEngine, cb Callbacks, opts ...Option) *Session {
	s := &Session{
		role:     role,
		mode:     mode,
		id:       append([]byte(nil), sessionID...),
		streams:     idmap.New[*Stream](),
		promises:    idmap.New[*promise](),
		pushMatcher: newPromiseMatcher(64),
		hdrCtx:      NewHeaderContext(),
		engine:      engine,
		callbacks:   cb,
	}

	switch mode {
	case ModeMulticast:
		s.maxConcurrentRequests = multicastInitialMaxBidi
		s.maxConcurrentPushes = multicastInitialMaxUni
		s.maxPushPromise = MulticastMaxUniStreamID
	case ModeUnicast:
		s.maxConcurrentPushes = MulticastMaxUniStreamID
		s.maxPushPromise = 0
	}

	for _, opt := range opts {
		opt(s)
	}

	// Stream-0 is pre-created in every session as the fake-handshake
	// anchor (spec §4.6).
	s.streams.Add(StreamZeroID, nil, newStream(StreamZeroID))

	if role == RoleServer {
		ctrl := newStream(ServerControlStreamID)
		s.streams.Add(ServerControlStreamID, nil, ctrl)
	} else {
		ctrl := newStream(ClientControlStreamID)
		s.streams.Add(ClientControlStreamID, nil, ctrl)
	}

	return s
}

// Close tears down the session. In multicast server mode it looks up the
// init-request stream to emit a final close frame; per spec §9a, a missing
// stream is simply skipped rather than dereferenced.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.mode == ModeMulticast && s.role == RoleServer {
		if stream, ok := s.streams.Find(InitRequestStreamID); ok {
			s.finishStream(stream, KindSessionClosed)
		}
	}

	s.hdrCtx.Free()
	return nil
}

// Free releases session-scoped resources, mirroring nghq_session_free.
// Close should be called first; Free never fails.
func (s *Session) Free() {}

// finishStream drives both of a stream's state machines to DONE and
// invokes on_request_close with status.
func (s *Session) finishStream(stream *Stream, status Kind) {
	stream.finishSend()
	stream.finishRecv()
	stream.status = status
	if s.callbacks != nil {
		s.callbacks.OnRequestClose(status, stream.UserHandle())
	}
}

// GetStream returns the stream currently mapped to id.
func (s *Session) GetStream(id uint64) (*Stream, bool) {
	return s.streams.Find(id)
}

// HandshakeComplete reports whether the fabricated or real handshake has
// finished.
func (s *Session) HandshakeComplete() bool { return s.handshakeComplete }

// bufchainQueue is a minimal FIFO of already-built raw packets. It backs
// the session-level outbound/inbound queues described in spec §3, which
// hold whole packets rather than stream-byte segments.
type bufchainQueue struct {
	packets [][]byte
}

func (q *bufchainQueue) push(pkt []byte) { q.packets = append(q.packets, pkt) }

func (q *bufchainQueue) pop() ([]byte, bool) {
	if len(q.packets) == 0 {
		return nil, false
	}
	pkt := q.packets[0]
	q.packets = q.packets[1:]
	return pkt, true
}

func (q *bufchainQueue) empty() bool { return len(q.packets) == 0 }
