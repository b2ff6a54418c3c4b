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

package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetd/nghq/common"
	"github.com/packetd/nghq/h3"
)

func newTestCallbacks(role h3.Role) *sessionCallbacks {
	return &sessionCallbacks{
		ctrl:      &Controller{events: make(chan *common.LifecycleEvent, 4)},
		sessionID: []byte{0x01, 0x02},
		role:      role,
		streams:   make(map[*h3.Stream]*streamState),
	}
}

func TestSessionCallbacksRequestClosed(t *testing.T) {
	cb := newTestCallbacks(h3.RoleServer)
	stream := &h3.Stream{}

	cb.OnBeginHeaders(stream)
	cb.OnHeaders(h3.FlagEndRequest, []h3.HeaderField{
		{Name: ":method", Value: "GET"},
		{Name: ":path", Value: "/widgets"},
	}, stream)
	cb.OnRequestClose(h3.KindOK, stream)

	require.Len(t, cb.ctrl.events, 1)
	ev := <-cb.ctrl.events
	assert.Equal(t, common.EventRequestClosed, ev.Kind)
	assert.Equal(t, "GET", ev.Method)
	assert.Equal(t, "/widgets", ev.Path)
	assert.EqualValues(t, -1, ev.PushID)
}

func TestSessionCallbacksPushOutcomes(t *testing.T) {
	cb := newTestCallbacks(h3.RoleServer)
	parent := &h3.Stream{}
	push := &h3.Stream{}

	cb.OnBeginPromise(parent, push)
	cb.OnRequestClose(h3.KindOK, push)

	require.Len(t, cb.ctrl.events, 1)
	ev := <-cb.ctrl.events
	assert.Equal(t, common.EventPushMaterialised, ev.Kind)
	assert.NotEqual(t, int64(-1), ev.PushID)

	cb.OnBeginPromise(parent, push)
	cb.OnRequestClose(h3.KindNotInterested, push)

	require.Len(t, cb.ctrl.events, 1)
	ev = <-cb.ctrl.events
	assert.Equal(t, common.EventPushCancelled, ev.Kind)
}

func TestSessionCallbacksIgnoresUnknownStreamUser(t *testing.T) {
	cb := newTestCallbacks(h3.RoleServer)
	cb.OnRequestClose(h3.KindOK, "not-a-stream")
	assert.Len(t, cb.ctrl.events, 0)
}
