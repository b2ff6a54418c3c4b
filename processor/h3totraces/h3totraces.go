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

// Package h3totraces turns a closed-request lifecycle event into a single
// OpenTelemetry span, the way the teacher's roundtripstotraces converted
// one captured application-protocol roundtrip per wire protocol. With one
// wire protocol there is one conversion, not a per-protocol registry.
package h3totraces

import (
	"time"

	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/ptrace"

	"github.com/packetd/nghq/common"
	"github.com/packetd/nghq/internal/tracekit"
	"github.com/packetd/nghq/processor"
)

const Name = "h3totraces"

func init() {
	processor.Register(Name, New)
}

type Factory struct{}

func New(conf map[string]any) (processor.Processor, error) {
	return &Factory{}, nil
}

func (f *Factory) Name() string { return Name }

func (f *Factory) Process(record *common.Record) (*common.Record, error) {
	ev, ok := record.Data.(*common.LifecycleEvent)
	if !ok || ev.Kind != common.EventRequestClosed {
		return nil, nil
	}

	span := ptrace.NewSpan()
	traceID, ok := tracekit.TraceIDFromHeaders(ev.RequestHeaders)
	if !ok {
		traceID = tracekit.RandomTraceID()
	}
	span.SetTraceID(traceID)
	span.SetSpanID(tracekit.RandomSpanID())
	span.SetName(ev.Method + " " + ev.Path)
	span.SetKind(ptrace.SpanKindServer)
	span.SetStartTimestamp(pdataTimestamp(ev.Start))
	span.SetEndTimestamp(pdataTimestamp(ev.Start.Add(ev.Duration)))

	attrs := span.Attributes()
	attrs.PutStr("http.request.method", ev.Method)
	attrs.PutStr("url.path", ev.Path)
	attrs.PutStr("http.response.status_code", ev.Status)
	attrs.PutInt("http3.stream_id", int64(ev.StreamID))

	return &common.Record{RecordType: common.RecordTraces, Data: span}, nil
}

func (f *Factory) Clean() {}

func pdataTimestamp(t time.Time) pcommon.Timestamp {
	return pcommon.NewTimestampFromTime(t)
}
