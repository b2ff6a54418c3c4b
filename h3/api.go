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

import (
	"github.com/packetd/nghq/internal/rescue"
	"github.com/packetd/nghq/internal/varint"
)

// pushStreamType is the HTTP/3 unidirectional stream type byte identifying
// a push stream, ahead of the push-id varint this package also expects
// (spec §4.7's "two leading varints" case).
const pushStreamType = 0x01

func encodePushStreamPrefix(pushID uint64) []byte {
	out := varint.Append(nil, pushStreamType)
	return varint.Append(out, pushID)
}

// Recv feeds one transport-layer datagram into the session: the transport
// engine decrypts and reassembles it into QUIC packets, reports whatever
// raw STREAM frames it found, and this layer reassembles those into
// HTTP/3 frames and dispatches them to the host (spec §4.7).
func (s *Session) Recv(pkt []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			for _, fn := range rescue.PanicHandlers {
				fn(r)
			}
			err = newErrorf(KindGenericError, "recovered panic in Recv: %v", r)
		}
	}()

	frames, err := s.engine.ReadPacket(pkt)
	if err != nil {
		return wrapError(KindTransportError, err, "read packet")
	}
	s.lastRemotePktNum = s.engine.RemotePacketNumber()

	for _, fr := range frames {
		stream, ok := s.streams.Find(fr.StreamID)
		if !ok {
			stream = newStream(fr.StreamID)
			s.streams.Add(fr.StreamID, nil, stream)
		}
		if err := s.feed(stream, fr.Offset, fr.Data, fr.Fin); err != nil {
			return err
		}
		if stream.isDone() {
			s.streams.Remove(fr.StreamID)
		}
	}

	if s.metrics != nil && s.metrics.bytesInFlight != nil {
		s.metrics.bytesInFlight.Set(float64(s.engine.BytesInFlight()))
	}
	return nil
}

// OpenStream allocates a new bidirectional request stream with the given
// user handle and returns it. The caller is expected to then call
// SubmitRequest on it.
func (s *Session) OpenStream(id uint64, userHandle any) *Stream {
	stream := newStream(id)
	if userHandle != nil {
		stream.SetUserHandle(userHandle)
	}
	s.streams.Add(id, userHandle, stream)
	return stream
}

// SubmitRequest queues a HEADERS frame (and, if body is non-nil, a DATA
// frame) for stream, advancing its send state machine (spec §4.6).
func (s *Session) SubmitRequest(stream *Stream, headers []HeaderField, body []byte, eos bool) error {
	trailerPromised := HasTrailerField(headers)
	if err := stream.feedHeaders(trailerPromised); err != nil {
		return err
	}
	block := s.hdrCtx.Encode(headers)
	stream.send.TrimAndAppend(CreateHeadersFrame(block, -1), false)

	if len(body) > 0 || eos {
		if err := stream.feedPayloadData(); err != nil {
			return err
		}
		stream.send.TrimAndAppend(CreateDataFrame(body), eos)
	}
	return nil
}

// FeedPayloadData queues additional DATA-frame bytes on an already-open
// request or response stream.
func (s *Session) FeedPayloadData(stream *Stream, data []byte, eos bool) error {
	if err := stream.feedPayloadData(); err != nil {
		return err
	}
	stream.send.TrimAndAppend(CreateDataFrame(data), eos)
	return nil
}

// FeedTrailers queues a trailing HEADERS block. The stream must have
// named a "trailer" field in its leading headers first.
func (s *Session) FeedTrailers(stream *Stream, trailers []HeaderField) error {
	if err := stream.feedHeaders(false); err != nil {
		return err
	}
	block := s.hdrCtx.Encode(trailers)
	stream.send.TrimAndAppend(CreateHeadersFrame(block, -1), true)
	return nil
}

// SubmitPushPromise allocates the next push id and queues a PUSH_PROMISE
// frame on parent, returning the allocated id. It fails with
// KindPushLimitReached once nextPushID would exceed the peer-advertised
// MAX_PUSH_ID (spec Testable Property #8).
func (s *Session) SubmitPushPromise(parent *Stream, headers []HeaderField) (uint64, error) {
	if s.role != RoleServer {
		return 0, newErrorf(KindServerOnly, "only servers may push")
	}
	if s.nextPushID > s.maxPushPromise {
		return 0, newErrorf(KindPushLimitReached, "next push id %d exceeds limit %d", s.nextPushID, s.maxPushPromise)
	}

	pushID := s.nextPushID
	s.nextPushID++

	block := s.hdrCtx.Encode(headers)
	parent.send.TrimAndAppend(CreatePushPromiseFrame(pushID, block), false)

	p := &promise{pushID: pushID, parentStreamID: parent.id}
	s.promises.Add(pushID, nil, p)
	return pushID, nil
}

// OpenPushStream allocates the unidirectional stream that materialises a
// previously promised push and queues its leading stream-type/push-id
// prefix plus response HEADERS.
func (s *Session) OpenPushStream(streamID, pushID uint64, headers []HeaderField, userHandle any) (*Stream, error) {
	if _, ok := s.promises.Find(pushID); !ok {
		return nil, newErrorf(KindBadUserData, "push id %d was never promised", pushID)
	}
	stream := s.OpenStream(streamID, userHandle)
	stream.pushID = pushID

	lead := encodePushStreamPrefix(pushID)
	block := s.hdrCtx.Encode(headers)
	if err := stream.feedHeaders(HasTrailerField(headers)); err != nil {
		return nil, err
	}
	stream.send.TrimAndAppend(append(lead, CreateHeadersFrame(block, -1)...), false)
	return stream, nil
}

// CancelPush sends a CANCEL_PUSH frame and forgets the promise locally.
func (s *Session) CancelPush(ctrl *Stream, pushID uint64) error {
	ctrl.send.TrimAndAppend(CreateCancelPushFrame(pushID), false)
	s.promises.Remove(pushID)
	return nil
}
