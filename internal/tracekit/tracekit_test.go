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

package tracekit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/otel/trace"

	"github.com/packetd/nghq/common"
)

func TestTraceIDFromTraceparent(t *testing.T) {
	want, _ := trace.TraceIDFromHex("0af7651916cd43dd8448eb211c80319c")

	tests := []struct {
		name        string
		traceParent string
		want        pcommon.TraceID
		ok          bool
	}{
		{
			name:        "valid",
			traceParent: "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01",
			want:        pcommon.TraceID(want),
			ok:          true,
		},
		{
			name:        "invalid traceid",
			traceParent: "00-0af7651916cd43dd8448eb211c80319!-b7ad6b7169203331-01",
			ok:          false,
		},
		{
			name:        "invalid version",
			traceParent: "02-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01",
			ok:          false,
		},
		{
			name:        "empty",
			traceParent: "",
			ok:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TraceIDFromTraceparent(tt.traceParent)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestTraceIDFromHeaders(t *testing.T) {
	fields := []common.HeaderField{
		{Name: ":method", Value: "GET"},
		{Name: "Traceparent", Value: "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01"},
	}

	got, ok := TraceIDFromHeaders(fields)
	assert.True(t, ok)

	want, _ := trace.TraceIDFromHex("0af7651916cd43dd8448eb211c80319c")
	assert.Equal(t, pcommon.TraceID(want), got)

	_, ok = TraceIDFromHeaders(nil)
	assert.False(t, ok)
}

func TestRandomIDs(t *testing.T) {
	a := RandomTraceID()
	b := RandomTraceID()
	assert.NotEqual(t, a, b)

	sa := RandomSpanID()
	sb := RandomSpanID()
	assert.NotEqual(t, sa, sb)
}
