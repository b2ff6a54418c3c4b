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

	"github.com/packetd/nghq/internal/varint"
)

func TestExpandPacketNumberNearExpected(t *testing.T) {
	assert.EqualValues(t, 257, expandPacketNumber(1, 1, 255))
	assert.EqualValues(t, 10, expandPacketNumber(10, 1, 5))
}

func TestStartServerProducesFakeAckWithMagic(t *testing.T) {
	engine := NewFakeTransportEngine()
	cb := &noopCallbacks{}
	sess := NewSession(RoleServer, ModeMulticast, []byte{0xde, 0xad, 0xbe, 0xef}, engine, cb)

	magic := make([]byte, multicastMagicSize)
	for i := range magic {
		magic[i] = byte(i)
	}

	ack, err := sess.StartServer(magic)
	require.NoError(t, err)
	require.True(t, sess.HandshakeComplete())
	assert.Len(t, engine.InstalledKeys, 3)
	assert.Equal(t, 0, engine.AEADOverhead)

	require.True(t, len(ack) > 5)
	assert.Equal(t, byte(0x40), ack[0])
	assert.Equal(t, sess.ID(), ack[1:1+len(sess.ID())])

	frame := ack[1+len(sess.ID()):]
	assert.Equal(t, byte(ackFrameType), frame[0])
	largest, n, err := varint.Decode(frame[1:])
	require.NoError(t, err)
	assert.EqualValues(t, 0, largest)
	_ = n
}

type noopCallbacks struct{}

func (noopCallbacks) Recv(buf []byte) (int, error) { return len(buf), nil }
func (noopCallbacks) Send(buf []byte) (int, error) { return len(buf), nil }
func (noopCallbacks) OnBeginHeaders(any)                        {}
func (noopCallbacks) OnHeaders(HeaderFlags, []HeaderField, any) {}
func (noopCallbacks) OnDataRecv(DataFlags, []byte, uint64, any) {}
func (noopCallbacks) OnBeginPromise(any, any)                   {}
func (noopCallbacks) OnRequestClose(Kind, any)                  {}
