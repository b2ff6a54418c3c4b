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
	"sync"
	"time"

	"github.com/packetd/nghq/common"
	"github.com/packetd/nghq/h3"
	"github.com/packetd/nghq/transportshim"
)

// streamState accumulates what a stream's h3.Callbacks calls tell us
// until OnRequestClose turns it into a common.LifecycleEvent.
type streamState struct {
	start  time.Time
	isPush bool

	method, path, status string
	reqHeaders            []common.HeaderField
	respHeaders           []common.HeaderField
}

// sessionCallbacks implements h3.Callbacks for one session. It embeds the
// transportshim.UDPShim bound to this session id for the Recv/Send corner
// of the interface and translates the protocol corner (OnHeaders,
// OnDataRecv, OnRequestClose, ...) into common.LifecycleEvent values
// handed to the controller's event queue, generalising the single
// concrete connstream.Conn implementation the teacher wired per protocol
// into one implementation for this library's one protocol.
type sessionCallbacks struct {
	*transportshim.UDPShim

	ctrl      *Controller
	sessionID []byte
	role      h3.Role

	mu      sync.Mutex
	streams map[*h3.Stream]*streamState
}

func (c *sessionCallbacks) state(stream *h3.Stream) *streamState {
	st, ok := c.streams[stream]
	if !ok {
		st = &streamState{start: time.Now()}
		c.streams[stream] = st
	}
	return st
}

func (c *sessionCallbacks) OnBeginHeaders(streamUser any) {
	stream, ok := streamUser.(*h3.Stream)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state(stream)
}

func (c *sessionCallbacks) OnHeaders(flags h3.HeaderFlags, hdr []h3.HeaderField, streamUser any) {
	stream, ok := streamUser.(*h3.Stream)
	if !ok {
		return
	}

	fields := make([]common.HeaderField, len(hdr))
	for i, f := range hdr {
		fields[i] = common.HeaderField{Name: f.Name, Value: f.Value}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state(stream)

	// A server's own Callbacks receives request headers; a client's
	// receives response headers (spec §4: each endpoint only ever sees
	// its own direction's worth of pseudo-headers).
	if c.role == h3.RoleServer {
		st.reqHeaders = fields
		for _, f := range hdr {
			switch f.Name {
			case ":method":
				st.method = f.Value
			case ":path":
				st.path = f.Value
			}
		}
		return
	}

	st.respHeaders = fields
	for _, f := range hdr {
		if f.Name == ":status" {
			st.status = f.Value
		}
	}
}

func (c *sessionCallbacks) OnDataRecv(flags h3.DataFlags, data []byte, offset uint64, streamUser any) {
	// Lifecycle events carry timing and headers, not body bytes; nothing
	// downstream of the controller consumes per-chunk payload data.
}

func (c *sessionCallbacks) OnBeginPromise(parentStreamUser, promiseUser any) {
	promised, ok := promiseUser.(*h3.Stream)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.streams[promised] = &streamState{start: time.Now(), isPush: true}
}

func (c *sessionCallbacks) OnRequestClose(status h3.Kind, streamUser any) {
	stream, ok := streamUser.(*h3.Stream)
	if !ok {
		return
	}

	c.mu.Lock()
	st, found := c.streams[stream]
	delete(c.streams, stream)
	c.mu.Unlock()
	if !found {
		return
	}

	ev := &common.LifecycleEvent{
		SessionID:       c.sessionID,
		StreamID:        stream.ID(),
		PushID:          -1,
		Method:          st.method,
		Path:            st.path,
		Status:          st.status,
		RequestHeaders:  st.reqHeaders,
		ResponseHeaders: st.respHeaders,
		Start:           st.start,
		Duration:        time.Since(st.start),
	}

	switch {
	case st.isPush && status == h3.KindOK:
		ev.Kind = common.EventPushMaterialised
		ev.PushID = int64(stream.ID())
	case st.isPush:
		ev.Kind = common.EventPushCancelled
		ev.PushID = int64(stream.ID())
	default:
		ev.Kind = common.EventRequestClosed
	}

	c.ctrl.emit(ev)
}
