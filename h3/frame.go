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

import "github.com/packetd/nghq/internal/varint"

// FrameType identifies an HTTP/3 frame. Every frame on the wire begins with
// a varint FrameType followed by a varint payload length.
type FrameType uint64

const (
	FrameData        FrameType = 0x0
	FrameHeaders     FrameType = 0x1
	FramePriority    FrameType = 0x2
	FrameCancelPush  FrameType = 0x3
	FrameSettings    FrameType = 0x4
	FramePushPromise FrameType = 0x5
	FrameGoAway      FrameType = 0x7
	FrameMaxPushID   FrameType = 0xd
)

// errNeedMore signals that buf does not yet contain a complete frame
// header or payload; it is absorbed by the reassembly engine, never
// surfaced to the host.
var errNeedMore = newErrorf(KindNoMoreData, "need more bytes")

func frameHeaderBytes(t FrameType, payloadLen uint64) []byte {
	var out []byte
	out = varint.Append(out, uint64(t))
	out = varint.Append(out, payloadLen)
	return out
}

// ParseFrameHeader reads the varint type and varint length prefix from the
// front of buf. It returns the frame type, the number of header bytes
// consumed and the payload length, so the reassembly engine can reserve the
// frame's exact span (header + payload) before the payload has arrived.
func ParseFrameHeader(buf []byte) (frameType FrameType, headerLen int, payloadLen uint64, err error) {
	typ, n, derr := varint.Decode(buf)
	if derr != nil {
		return 0, 0, 0, errNeedMore
	}
	length, n2, derr := varint.Decode(buf[n:])
	if derr != nil {
		return 0, 0, 0, errNeedMore
	}
	return FrameType(typ), n + n2, length, nil
}

// CreateDataFrame wraps data in a DATA frame header. The payload itself is
// returned unmodified (zero-copy forwarding is the reassembly engine's job,
// not the codec's).
func CreateDataFrame(data []byte) []byte {
	return append(frameHeaderBytes(FrameData, uint64(len(data))), data...)
}

// ParseDataFrame returns the DATA frame's payload without copying it.
func ParseDataFrame(payload []byte) []byte {
	return payload
}

// CreateHeadersFrame builds a HEADERS frame body from an already-compressed
// header block. pushID < 0 marks a request/response header block (no
// prefix); any other value marks a push-continuation block, prefixed with
// the push-id as a varint.
func CreateHeadersFrame(headerBlock []byte, pushID int64) []byte {
	var payload []byte
	if pushID >= 0 {
		payload = varint.Append(payload, uint64(pushID))
	}
	payload = append(payload, headerBlock...)
	return append(frameHeaderBytes(FrameHeaders, uint64(len(payload))), payload...)
}

// ParseHeadersFrame extracts the push-id (-1 if absent) and header block
// from a HEADERS frame payload. isPushContinuation tells the parser whether
// to expect the leading push-id varint; that context comes from which
// stream the frame arrived on, not from the frame itself.
func ParseHeadersFrame(payload []byte, isPushContinuation bool) (pushID int64, headerBlock []byte, err error) {
	if !isPushContinuation {
		return -1, payload, nil
	}
	v, n, derr := varint.Decode(payload)
	if derr != nil {
		return 0, nil, newErrorf(KindHTTPMalformedFrame, "truncated push-id in HEADERS frame")
	}
	return int64(v), payload[n:], nil
}

// CreatePushPromiseFrame builds a PUSH_PROMISE frame body: a push-id varint
// followed by a compressed header block.
func CreatePushPromiseFrame(pushID uint64, headerBlock []byte) []byte {
	var payload []byte
	payload = varint.Append(payload, pushID)
	payload = append(payload, headerBlock...)
	return append(frameHeaderBytes(FramePushPromise, uint64(len(payload))), payload...)
}

// ParsePushPromiseFrame splits a PUSH_PROMISE frame payload into its
// push-id and header block.
func ParsePushPromiseFrame(payload []byte) (pushID uint64, headerBlock []byte, err error) {
	v, n, derr := varint.Decode(payload)
	if derr != nil {
		return 0, nil, newErrorf(KindHTTPMalformedFrame, "truncated push-id in PUSH_PROMISE frame")
	}
	return v, payload[n:], nil
}

func createSingleVarintFrame(t FrameType, v uint64) []byte {
	payload := varint.Append(nil, v)
	return append(frameHeaderBytes(t, uint64(len(payload))), payload...)
}

func parseSingleVarintFrame(t FrameType, payload []byte) (uint64, error) {
	v, _, err := varint.Decode(payload)
	if err != nil {
		return 0, newErrorf(KindHTTPMalformedFrame, "truncated %v frame", t)
	}
	return v, nil
}

// CreateCancelPushFrame / ParseCancelPushFrame encode and decode a
// CANCEL_PUSH frame's single push-id payload.
func CreateCancelPushFrame(pushID uint64) []byte { return createSingleVarintFrame(FrameCancelPush, pushID) }
func ParseCancelPushFrame(payload []byte) (uint64, error) {
	return parseSingleVarintFrame(FrameCancelPush, payload)
}

// CreateMaxPushIDFrame / ParseMaxPushIDFrame encode and decode a
// MAX_PUSH_ID frame's single push-id payload.
func CreateMaxPushIDFrame(pushID uint64) []byte { return createSingleVarintFrame(FrameMaxPushID, pushID) }
func ParseMaxPushIDFrame(payload []byte) (uint64, error) {
	return parseSingleVarintFrame(FrameMaxPushID, payload)
}

// CreateGoAwayFrame / ParseGoAwayFrame encode and decode a GOAWAY frame's
// single stream-id payload.
func CreateGoAwayFrame(streamID uint64) []byte { return createSingleVarintFrame(FrameGoAway, streamID) }
func ParseGoAwayFrame(payload []byte) (uint64, error) {
	return parseSingleVarintFrame(FrameGoAway, payload)
}

// Setting is a single SETTINGS identifier/value pair.
type Setting struct {
	ID    uint64
	Value uint64
}

// CreateSettingsFrame encodes a SETTINGS frame from a list of id/value
// pairs.
func CreateSettingsFrame(settings []Setting) []byte {
	var payload []byte
	for _, s := range settings {
		payload = varint.Append(payload, s.ID)
		payload = varint.Append(payload, s.Value)
	}
	return append(frameHeaderBytes(FrameSettings, uint64(len(payload))), payload...)
}

// ParseSettingsFrame decodes a SETTINGS frame payload. The core surface-
// validates but never acts on individual settings (spec §4.4).
func ParseSettingsFrame(payload []byte) ([]Setting, error) {
	var out []Setting
	for len(payload) > 0 {
		id, n, err := varint.Decode(payload)
		if err != nil {
			return nil, newErrorf(KindHTTPMalformedFrame, "truncated SETTINGS id")
		}
		payload = payload[n:]
		val, n2, err := varint.Decode(payload)
		if err != nil {
			return nil, newErrorf(KindHTTPMalformedFrame, "truncated SETTINGS value")
		}
		payload = payload[n2:]
		out = append(out, Setting{ID: id, Value: val})
	}
	return out, nil
}

// CreatePriorityFrame wraps an opaque PRIORITY payload; the core parses it
// only far enough to validate its shape and never acts on it.
func CreatePriorityFrame(raw []byte) []byte {
	return append(frameHeaderBytes(FramePriority, uint64(len(raw))), raw...)
}

// ParsePriorityFrame returns the PRIORITY frame's raw payload unexamined.
func ParsePriorityFrame(payload []byte) ([]byte, error) {
	return payload, nil
}
