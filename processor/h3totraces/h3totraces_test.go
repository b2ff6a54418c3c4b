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

package h3totraces

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/collector/pdata/ptrace"

	"github.com/packetd/nghq/common"
)

func TestProcessBuildsSpan(t *testing.T) {
	f, err := New(nil)
	require.NoError(t, err)

	ev := &common.LifecycleEvent{
		Kind:            common.EventRequestClosed,
		Method:          "GET",
		Path:            "/widgets",
		Status:          "200",
		Start:           time.Unix(1000, 0),
		Duration:        25 * time.Millisecond,
		RequestHeaders:  []common.HeaderField{{Name: "traceparent", Value: "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01"}},
	}
	out, err := f.Process(common.NewEventRecord(ev))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, common.RecordTraces, out.RecordType)

	span := out.Data.(ptrace.Span)
	assert.Equal(t, "GET /widgets", span.Name())
	assert.False(t, span.TraceID().IsEmpty())
}

func TestProcessIgnoresOtherKinds(t *testing.T) {
	f, err := New(nil)
	require.NoError(t, err)

	out, err := f.Process(common.NewEventRecord(&common.LifecycleEvent{Kind: common.EventPushMaterialised}))
	require.NoError(t, err)
	assert.Nil(t, out)
}
