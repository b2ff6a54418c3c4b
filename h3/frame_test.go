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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataFrameRoundTrip(t *testing.T) {
	body := []byte("hello multicast world")
	wire := CreateDataFrame(body)

	frameType, headerLen, payloadLen, err := ParseFrameHeader(wire)
	require.NoError(t, err)
	assert.Equal(t, FrameData, frameType)
	assert.Equal(t, uint64(len(body)), payloadLen)
	assert.Equal(t, body, ParseDataFrame(wire[headerLen:headerLen+int(payloadLen)]))
}

func TestHeadersFrameRoundTrip(t *testing.T) {
	block := []byte{0x01, 0x02, 0x03, 0x04}

	wire := CreateHeadersFrame(block, -1)
	frameType, headerLen, payloadLen, err := ParseFrameHeader(wire)
	require.NoError(t, err)
	assert.Equal(t, FrameHeaders, frameType)

	pushID, got, err := ParseHeadersFrame(wire[headerLen:headerLen+int(payloadLen)], false)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), pushID)
	assert.Equal(t, block, got)
}

func TestHeadersFramePushContinuation(t *testing.T) {
	block := []byte{0xaa, 0xbb}
	wire := CreateHeadersFrame(block, 7)

	_, headerLen, payloadLen, err := ParseFrameHeader(wire)
	require.NoError(t, err)

	pushID, got, err := ParseHeadersFrame(wire[headerLen:headerLen+int(payloadLen)], true)
	require.NoError(t, err)
	assert.EqualValues(t, 7, pushID)
	assert.Equal(t, block, got)
}

func TestPushPromiseFrameRoundTrip(t *testing.T) {
	block := []byte("compressed-headers")
	wire := CreatePushPromiseFrame(42, block)

	_, headerLen, payloadLen, err := ParseFrameHeader(wire)
	require.NoError(t, err)

	pushID, got, err := ParsePushPromiseFrame(wire[headerLen : headerLen+int(payloadLen)])
	require.NoError(t, err)
	assert.EqualValues(t, 42, pushID)
	assert.Equal(t, block, got)
}

func TestSingleVarintFrames(t *testing.T) {
	cases := []struct {
		name    string
		create  func(uint64) []byte
		parse   func([]byte) (uint64, error)
		typ     FrameType
		val     uint64
	}{
		{"cancel-push", CreateCancelPushFrame, ParseCancelPushFrame, FrameCancelPush, 9},
		{"max-push-id", CreateMaxPushIDFrame, ParseMaxPushIDFrame, FrameMaxPushID, 1000},
		{"goaway", CreateGoAwayFrame, ParseGoAwayFrame, FrameGoAway, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wire := tc.create(tc.val)
			frameType, headerLen, payloadLen, err := ParseFrameHeader(wire)
			require.NoError(t, err)
			assert.Equal(t, tc.typ, frameType)

			got, err := tc.parse(wire[headerLen : headerLen+int(payloadLen)])
			require.NoError(t, err)
			assert.Equal(t, tc.val, got)
		})
	}
}

func TestSettingsFrameRoundTrip(t *testing.T) {
	settings := []Setting{{ID: 1, Value: 100}, {ID: 7, Value: 0}}
	wire := CreateSettingsFrame(settings)

	_, headerLen, payloadLen, err := ParseFrameHeader(wire)
	require.NoError(t, err)

	got, err := ParseSettingsFrame(wire[headerLen : headerLen+int(payloadLen)])
	require.NoError(t, err)
	assert.Equal(t, settings, got)
}

func TestParseFrameHeaderNeedsMoreData(t *testing.T) {
	_, _, _, err := ParseFrameHeader(nil)
	assert.ErrorIs(t, err, errNeedMore)

	_, _, _, err = ParseFrameHeader([]byte{0x00})
	assert.ErrorIs(t, err, errNeedMore)
}
