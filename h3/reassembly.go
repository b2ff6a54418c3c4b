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
	"github.com/packetd/nghq/internal/bufchain"
	"github.com/packetd/nghq/internal/varint"
)

// alignedFront drops any front segments (or leading bytes within one) that
// lie entirely before target — the residue of an earlier insert whose
// bytes were already consumed before a later, overlapping retransmission
// of the same range arrived — and returns the segment together with the
// bytes it holds starting exactly at target. It returns (nil, nil) if
// target is not yet covered by anything in the chain.
func alignedFront(c *bufchain.Chain, target uint64) (*bufchain.Segment, []byte) {
	for {
		seg := c.Front()
		if seg == nil {
			return nil, nil
		}
		pos := seg.Offset + uint64(seg.SendPos)
		if target < pos {
			return nil, nil
		}
		if target >= seg.End() {
			c.PopFront()
			continue
		}
		seg.SendPos += int(target - pos)
		return seg, seg.Buf[seg.SendPos:]
	}
}

// feed hands one raw STREAM frame up into a stream's reassembly state. It
// runs the insert/extract/fill/dispatch pipeline described in spec §4.7:
// bytes land in the receive chain regardless of order, frame headers are
// pulled off the front of the chain as soon as they are contiguous, active
// frames are filled from whatever contiguous runs exist, and DATA bytes are
// handed to the host as soon as they are contiguous. Frames are extracted
// strictly in stream order, one at a time, so DATA bytes are not delivered
// ahead of an earlier frame on the same stream that is still incomplete.
func (s *Session) feed(stream *Stream, offset uint64, data []byte, fin bool) error {
	stream.recv.Insert(offset, data, fin)
	return s.drainStream(stream)
}

// drainStream alternates extracting the next frame header and filling
// whatever active frames exist until neither makes progress. Only one
// non-DATA frame is ever "in extraction" at a time per stream — its
// header and payload must be fully consumed (nextRecvOffset reaches its
// end and it is dispatched) before the next frame's header can be pulled
// off the chain, since that header's bytes physically follow the current
// frame's payload on the wire.
func (s *Session) drainStream(stream *Stream) error {
	for {
		extracted, err := s.extractFrames(stream)
		if err != nil {
			return err
		}
		filled, err := s.fillActiveFrames(stream)
		if err != nil {
			return err
		}
		if !extracted && !filled {
			return nil
		}
	}
}

// extractFrames pulls a new frame header off the front of the contiguous
// receive data and appends it as an active frame, provided no earlier
// frame on this stream is still awaiting its payload.
func (s *Session) extractFrames(stream *Stream) (bool, error) {
	if len(stream.active) > 0 {
		return false, nil
	}

	seg, buf := alignedFront(&stream.recv, stream.nextRecvOffset)
	if seg == nil || len(buf) == 0 {
		return false, nil
	}

	consumed, err := s.extractOneFrame(stream, stream.nextRecvOffset, buf)
	if err != nil {
		if err == errNeedMore {
			return false, nil
		}
		return false, err
	}
	if consumed == 0 {
		return false, nil
	}

	seg.SendPos += consumed
	stream.nextRecvOffset += uint64(consumed)
	if seg.SendPos >= len(seg.Buf) {
		stream.recv.PopFront()
	}
	return true, nil
}

// isPushPromiseUniStream reports whether id names a server-push
// unidirectional stream, which carries two leading varints (stream type,
// then push id) ahead of its first HEADERS frame (spec §4.7). The server
// control stream is also server-initiated unidirectional but is not a push
// stream.
func isPushPromiseUniStream(id uint64) bool {
	return id != StreamZeroID && id != ServerControlStreamID && id%4 == 3
}

func (s *Session) extractOneFrame(stream *Stream, offset uint64, buf []byte) (int, error) {
	if stream.id == StreamZeroID {
		return 0, nil
	}

	lead := 0
	if len(stream.active) == 0 && isPushPromiseUniStream(stream.id) && offset == 0 {
		_, n1, err := varint.Decode(buf)
		if err != nil {
			return 0, errNeedMore
		}
		pushID, n2, err := varint.Decode(buf[n1:])
		if err != nil {
			return 0, errNeedMore
		}
		stream.pushID = pushID
		lead = n1 + n2
	}

	frameType, headerLen, payloadLen, err := ParseFrameHeader(buf[lead:])
	if err != nil {
		return 0, err
	}

	af := &activeFrame{
		frameType: frameType,
		offset:    offset + uint64(lead) + uint64(headerLen),
		size:      payloadLen,
		gaps:      newGapList(payloadLen),
		pushID:    -1,
	}
	if frameType == FrameHeaders || frameType == FramePushPromise {
		af.data = make([]byte, payloadLen)
	}
	stream.active = append(stream.active, af)
	return lead + headerLen, nil
}

// fillActiveFrames copies whatever contiguous receive bytes exist into the
// single active frame currently being extracted, dispatching it to the
// host once its gap list empties. DATA frames are dispatched incrementally
// as bytes arrive rather than buffered whole. It returns whether it made
// any progress, so drainStream knows whether another round is worthwhile.
func (s *Session) fillActiveFrames(stream *Stream) (bool, error) {
	if len(stream.active) == 0 {
		return false, nil
	}

	af := stream.active[0]
	before := gapRemainingOrZero(af)

	if af.frameType == FrameData {
		if err := s.fillDataFrame(stream, af); err != nil {
			return false, err
		}
	} else {
		s.fillBufferedFrame(stream, af)
	}

	progressed := gapRemainingOrZero(af) != before
	if !af.gaps.empty() {
		return progressed, nil
	}

	stream.active = stream.active[1:]
	if err := s.dispatchFrame(stream, af); err != nil {
		return false, err
	}
	return true, nil
}

func gapRemainingOrZero(af *activeFrame) uint64 {
	if af == nil {
		return 0
	}
	return gapRemaining(af)
}

// fillDataFrame dispatches DATA bytes directly off the receive chain as
// they become contiguous, advancing the gap list without ever buffering
// the payload in af.data. The offset reported to OnDataRecv is the body
// offset: stream bytes rebased by dataOffsetAdjust so that frame headers
// are not counted.
func (s *Session) fillDataFrame(stream *Stream, af *activeFrame) error {
	for {
		filled := af.size - gapRemaining(af)
		if filled == 0 {
			stream.dataOffsetAdjust = int64(af.offset) - int64(stream.dataFramesTotal)
		}
		seg, avail := alignedFront(&stream.recv, af.offset+filled)
		if seg == nil {
			return nil
		}
		want := af.size - filled
		if uint64(len(avail)) > want {
			avail = avail[:want]
		}
		if len(avail) == 0 {
			return nil
		}

		if err := stream.recvData(); err != nil {
			return err
		}
		flags := DataFlags(0)
		if filled+uint64(len(avail)) >= af.size {
			flags = FlagEndData
		}
		if s.callbacks != nil {
			s.callbacks.OnDataRecv(flags, avail, uint64(int64(af.offset+filled)-stream.dataOffsetAdjust), stream.UserHandle())
		}
		af.gaps.punch(filled, filled+uint64(len(avail)))
		stream.dataFramesTotal += uint64(len(avail))

		seg.SendPos += len(avail)
		stream.nextRecvOffset += uint64(len(avail))
		if seg.SendPos >= len(seg.Buf) {
			stream.recv.PopFront()
		}
		if af.gaps.empty() {
			return nil
		}
	}
}

func gapRemaining(af *activeFrame) uint64 {
	var total uint64
	for _, g := range af.gaps.gaps {
		total += g.end - g.begin
	}
	return total
}

// fillBufferedFrame copies contiguous receive bytes into a HEADERS,
// PUSH_PROMISE, or control-frame's data buffer.
func (s *Session) fillBufferedFrame(stream *Stream, af *activeFrame) {
	for {
		filled := af.size - gapRemaining(af)
		pos := af.offset + filled
		if pos >= af.offset+af.size {
			return
		}
		seg, avail := alignedFront(&stream.recv, pos)
		if seg == nil {
			return
		}
		end := af.offset + af.size
		if pos+uint64(len(avail)) > end {
			avail = avail[:end-pos]
		}
		if len(avail) == 0 {
			return
		}
		copy(af.data[pos-af.offset:], avail)
		af.gaps.punch(pos-af.offset, pos-af.offset+uint64(len(avail)))

		seg.SendPos += len(avail)
		stream.nextRecvOffset += uint64(len(avail))
		if seg.SendPos >= len(seg.Buf) {
			stream.recv.PopFront()
		}
		if af.gaps.empty() {
			return
		}
	}
}

// dispatchFrame delivers a fully-filled non-DATA frame to the host.
func (s *Session) dispatchFrame(stream *Stream, af *activeFrame) error {
	switch af.frameType {
	case FrameHeaders:
		isPushContinuation := stream.pushID != NoStreamID && stream.dataFramesTotal == 0 && stream.id != StreamZeroID && isPushPromiseUniStream(stream.id)
		_, block, err := ParseHeadersFrame(af.data, isPushContinuation)
		if err != nil {
			return err
		}
		fields, err := s.hdrCtx.Decode(block)
		if err != nil {
			return err
		}
		trailerPromised := HasTrailerField(fields)
		first := stream.recvState == stateOpen
		if err := stream.recvHeaders(); err != nil {
			return err
		}
		if trailerPromised {
			stream.flags |= flagTrailersPromised
		}
		flags := HeaderFlags(0)
		if stream.recvState == stateTrailers {
			flags |= FlagTrailers
		}
		if s.callbacks != nil {
			if first {
				s.callbacks.OnBeginHeaders(stream.UserHandle())
			}
			s.callbacks.OnHeaders(flags, fields, stream.UserHandle())
		}
		if isPushContinuation && first {
			pair := s.pushMatcher.match(&promiseObject{role: roleMaterialized, pushID: stream.pushID, obj: stream})
			if pair != nil {
				if p, ok := pair.allocated.obj.(*promise); ok {
					p.materialized = true
				}
			}
		}
	case FramePushPromise:
		pushID, block, err := ParsePushPromiseFrame(af.data)
		if err != nil {
			return err
		}
		fields, err := s.hdrCtx.Decode(block)
		if err != nil {
			return err
		}
		p := &promise{pushID: pushID, parentStreamID: stream.id}
		s.promises.Add(pushID, nil, p)
		if s.callbacks != nil {
			s.callbacks.OnBeginPromise(stream.UserHandle(), p)
			s.callbacks.OnHeaders(FlagEndRequest, fields, p)
		}
		s.pushMatcher.match(&promiseObject{role: roleAllocated, pushID: pushID, obj: p})
	case FrameSettings:
		if _, err := ParseSettingsFrame(af.data); err != nil {
			return err
		}
	case FrameGoAway:
		if _, err := ParseGoAwayFrame(af.data); err != nil {
			return err
		}
		s.Close()
	case FrameMaxPushID:
		v, err := ParseMaxPushIDFrame(af.data)
		if err != nil {
			return err
		}
		s.maxPushPromise = v
	case FrameCancelPush:
		v, err := ParseCancelPushFrame(af.data)
		if err != nil {
			return err
		}
		if p, ok := s.promises.Find(v); ok {
			_ = p
			s.promises.Remove(v)
		}
	case FramePriority:
		if _, err := ParsePriorityFrame(af.data); err != nil {
			return err
		}
	}
	return nil
}
