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

import "github.com/packetd/nghq/internal/rescue"

// Send first returns session-blocked if the transport engine already has
// MAX_BYTES_IN_FLIGHT or more bytes in flight. Otherwise it flushes any
// pre-built packets sitting in the session's outgoing queue (timer-fired
// ACKs, the fabricated handshake flight) via the host's Send callback, then
// drains every stream with pending outbound bytes, lowest stream id first,
// coalescing as many bytes as fit under the per-packet overhead budget. It
// returns the number of pre-built packets flushed plus the number of
// streams that had bytes written.
//
// The bytes-in-flight gate is unconditional: it is checked at entry and
// rechecked before every stream visited in the pass, so a stream that
// pushes the engine over MAX_BYTES_IN_FLIGHT blocks every stream after it
// in the same round, even ones with room left in the current packet.
func (s *Session) Send(maxPacketSize int) (sent int, err error) {
	defer func() {
		if r := recover(); r != nil {
			for _, fn := range rescue.PanicHandlers {
				fn(r)
			}
			err = newErrorf(KindGenericError, "recovered panic in Send: %v", r)
		}
	}()

	budget := maxPacketSize - MinStreamPacketOverhead
	if budget <= 0 {
		return 0, newErrorf(KindInternalError, "max packet size %d too small for overhead", maxPacketSize)
	}

	if s.engine.BytesInFlight() >= MaxBytesInFlight {
		return 0, newErrorf(KindSessionBlocked, "bytes in flight at or above %d", MaxBytesInFlight)
	}

	sent = 0
	for pkt, ok := s.outbound.pop(); ok; pkt, ok = s.outbound.pop() {
		if s.callbacks != nil {
			if _, err := s.callbacks.Send(pkt); err != nil {
				return sent, wrapError(KindTransportError, err, "flush pre-built packet")
			}
		}
		sent++
	}

	id, stream, ok := s.firstSendable()
	for ok {
		if s.engine.BytesInFlight() >= MaxBytesInFlight {
			return sent, newErrorf(KindSessionBlocked, "bytes in flight at or above %d", MaxBytesInFlight)
		}
		n, err := s.sendStream(stream, budget)
		if err != nil {
			return sent, err
		}
		if n > 0 {
			sent++
		}
		id, stream, ok = s.nextSendable(id)
	}
	return sent, nil
}

func (s *Session) firstSendable() (uint64, *Stream, bool) {
	for _, id := range s.streams.Ascending() {
		stream, _ := s.streams.Find(id)
		if !stream.send.Empty() {
			return id, stream, true
		}
	}
	return 0, nil, false
}

func (s *Session) nextSendable(after uint64) (uint64, *Stream, bool) {
	for {
		id, stream, ok := s.streams.Next(after)
		if !ok {
			return 0, nil, false
		}
		after = id
		if !stream.send.Empty() {
			return id, stream, true
		}
	}
}

// sendStream writes as much of one stream's pending send chain as fits in
// budget bytes, absorbing the transport engine's flow-control and
// stream-lifecycle pushback as "try again later" rather than a fatal error
// (spec §4.8, §7).
func (s *Session) sendStream(stream *Stream, budget int) (int, error) {
	total := 0
	for !stream.send.Empty() && total < budget {
		seg := stream.send.Front()
		chunk := seg.Buf[seg.SendPos:]
		if len(chunk) > budget-total {
			chunk = chunk[:budget-total]
		}
		fin := seg.Complete && seg.SendPos+len(chunk) >= len(seg.Buf)

		n, _, err := s.engine.WriteStream(stream.id, chunk, fin)
		if err != nil {
			switch err {
			case ErrStreamDataBlocked, ErrShutWr, ErrStreamNotFound:
				return total, nil
			default:
				return total, wrapError(KindTransportError, err, "write stream %d failed", stream.id)
			}
		}
		if n == 0 {
			break
		}

		seg.SendPos += n
		total += n
		if seg.SendPos >= len(seg.Buf) {
			stream.send.PopFront()
			if seg.Complete {
				stream.finishSend()
				if stream.isDone() {
					if s.callbacks != nil {
						s.callbacks.OnRequestClose(KindOK, stream.UserHandle())
					}
					s.streams.Remove(stream.id)
				}
				break
			}
		}
	}
	return total, nil
}
