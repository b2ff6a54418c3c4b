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

func TestSendStateMonotonicHappyPath(t *testing.T) {
	s := newStream(4)
	require.NoError(t, s.feedHeaders(false))
	assert.Equal(t, stateHdrs, s.sendState)

	require.NoError(t, s.feedPayloadData())
	assert.Equal(t, stateBody, s.sendState)

	require.NoError(t, s.feedPayloadData())
	assert.Equal(t, stateBody, s.sendState)

	s.finishSend()
	assert.Equal(t, stateDone, s.sendState)
}

func TestSendStateTrailersRequirePromise(t *testing.T) {
	s := newStream(4)
	require.NoError(t, s.feedHeaders(false))
	require.NoError(t, s.feedPayloadData())

	err := s.feedHeaders(false)
	require.Error(t, err)
	assert.Equal(t, KindTrailersNotPromised, KindOf(err))
}

func TestSendStateTrailersAllowedWhenPromised(t *testing.T) {
	s := newStream(4)
	require.NoError(t, s.feedHeaders(true))
	require.NoError(t, s.feedPayloadData())
	require.NoError(t, s.feedHeaders(true))
	assert.Equal(t, stateTrailers, s.sendState)
}

func TestRecvStateMonotonicHappyPath(t *testing.T) {
	s := newStream(4)
	require.NoError(t, s.recvHeaders())
	assert.Equal(t, stateHdrs, s.recvState)

	require.NoError(t, s.recvData())
	assert.Equal(t, stateBody, s.recvState)

	require.NoError(t, s.recvHeaders())
	assert.Equal(t, stateTrailers, s.recvState)

	s.finishRecv()
	assert.Equal(t, stateDone, s.recvState)
}

func TestStreamIsDoneRequiresBothDirections(t *testing.T) {
	s := newStream(4)
	assert.False(t, s.isDone())
	s.finishSend()
	assert.False(t, s.isDone())
	s.finishRecv()
	assert.True(t, s.isDone())
}

func TestStreamUserHandleDefaultsToSelf(t *testing.T) {
	s := newStream(8)
	assert.Same(t, s, s.UserHandle())

	s.SetUserHandle("custom")
	assert.Equal(t, "custom", s.UserHandle())
}
