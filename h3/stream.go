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

import "github.com/packetd/nghq/internal/bufchain"

// NoStreamID is the sentinel "not found" value for both stream-ids and
// push-ids.
const NoStreamID = ^uint64(0)

// Reserved stream and control-stream ids (spec §4.6, §4.7, Glossary).
const (
	StreamZeroID           uint64 = 0
	ServerControlStreamID  uint64 = 3
	ClientControlStreamID  uint64 = 2
	InitRequestStreamID    uint64 = 4
	PushPromiseStreamID    uint64 = 4
)

// streamState is a node in the five-state send/receive lattice.
type streamState int

const (
	stateOpen streamState = iota
	stateHdrs
	stateBody
	stateTrailers
	stateDone
)

// Stream flag bits (spec §3).
const (
	flagStarted           uint8 = 1 << iota
	flagTrailersPromised
)

// activeFrame is a receive-side frame whose byte span is known but whose
// payload is still being filled in. DATA frames carry no Data buffer — body
// bytes are delivered straight to the user callback as they fill.
type activeFrame struct {
	frameType       FrameType
	offset          uint64 // stream offset of the frame's first payload byte
	size            uint64 // payload length
	gaps            *gapList
	data            []byte // nil for DATA frames
	endHeaderOffset uint64 // HEADERS: offset where the header block ends
	pushID          int64  // HEADERS/PUSH_PROMISE: associated push id, -1 if none
}

// Stream is the per-stream state carried by a session (spec §3, §4.6).
type Stream struct {
	id         uint64
	pushID     uint64 // NoStreamID if this stream is not a push
	userHandle any

	sendState streamState
	recvState streamState
	flags     uint8

	recv           bufchain.Chain // receive-side ordered segment store
	send           bufchain.Chain // send-side outbound frame queue
	active         []*activeFrame // active partial frames, oldest first
	nextRecvOffset uint64         // next un-framed byte expected

	dataFramesTotal  uint64 // cumulative DATA-frame body bytes seen
	dataOffsetAdjust int64  // rebases stream offsets into application offsets

	status Kind // transient status surfaced to on_request_close
}

// newStream allocates a stream with both state machines at OPEN. Its
// opaque user handle defaults to the stream's own address, matching the
// "every stream has a unique handle" invariant from spec §3.
func newStream(id uint64) *Stream {
	s := &Stream{id: id, pushID: NoStreamID, recvState: stateOpen, sendState: stateOpen}
	s.userHandle = s
	return s
}

// ID returns the stream's id.
func (s *Stream) ID() uint64 { return s.id }

// UserHandle returns the opaque handle a host callback receives for this
// stream.
func (s *Stream) UserHandle() any { return s.userHandle }

// SetUserHandle lets the host install its own opaque handle.
func (s *Stream) SetUserHandle(h any) { s.userHandle = h }

func (s *Stream) isDone() bool {
	return s.sendState == stateDone && s.recvState == stateDone
}

// --- send state machine -----------------------------------------------

// feedHeaders advances the send state machine on an outbound headers block.
// trailerPromised is whether this header block named a "trailer" field.
func (s *Stream) feedHeaders(trailerPromised bool) error {
	switch s.sendState {
	case stateOpen:
		s.sendState = stateHdrs
		if trailerPromised {
			s.flags |= flagTrailersPromised
		}
		return nil
	case stateBody:
		if s.flags&flagTrailersPromised == 0 {
			return newErrorf(KindTrailersNotPromised, "stream %d: trailers were not promised", s.id)
		}
		s.sendState = stateTrailers
		return nil
	default:
		return newErrorf(KindRequestClosed, "stream %d: cannot feed headers from send state %d", s.id, s.sendState)
	}
}

// feedPayloadData advances the send state machine on outbound body bytes.
func (s *Stream) feedPayloadData() error {
	switch s.sendState {
	case stateHdrs:
		s.sendState = stateBody
		return nil
	case stateBody:
		return nil
	default:
		return newErrorf(KindRequestClosed, "stream %d: cannot feed payload from send state %d", s.id, s.sendState)
	}
}

// finishSend moves the send state machine to DONE unconditionally: on the
// final flag, stream cancellation, or the close callback.
func (s *Stream) finishSend() {
	s.sendState = stateDone
}

// --- receive state machine ----------------------------------------------

// recvHeaders advances the receive state machine on an inbound HEADERS
// frame.
func (s *Stream) recvHeaders() error {
	switch s.recvState {
	case stateOpen:
		s.recvState = stateHdrs
		return nil
	case stateBody:
		s.recvState = stateTrailers
		return nil
	default:
		return newErrorf(KindRequestClosed, "stream %d: HEADERS illegal in receive state %d", s.id, s.recvState)
	}
}

// recvData advances the receive state machine on an inbound DATA frame.
func (s *Stream) recvData() error {
	switch s.recvState {
	case stateHdrs:
		s.recvState = stateBody
		return nil
	case stateBody:
		return nil
	default:
		return newErrorf(KindRequestClosed, "stream %d: DATA illegal in receive state %d", s.id, s.recvState)
	}
}

func (s *Stream) finishRecv() {
	s.recvState = stateDone
}
