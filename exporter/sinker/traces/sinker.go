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

// Package traces sinks batched ptrace.Traces into the process log: this
// repo carries no OTLP exporter dependency, so a batch summary logged
// through the shared zap-backed logger stands in for a real trace
// backend, the same way the events sinker stands in for a log pipeline.
package traces

import (
	"go.opentelemetry.io/collector/pdata/ptrace"

	"github.com/packetd/nghq/common"
	"github.com/packetd/nghq/exporter"
	"github.com/packetd/nghq/logger"
)

func init() {
	exporter.Register(common.RecordTraces, New)
}

type Sinker struct{}

func New(conf exporter.Config) (exporter.Sinker, error) {
	return &Sinker{}, nil
}

func (s *Sinker) Name() common.RecordType {
	return common.RecordTraces
}

func (s *Sinker) Sink(data any) error {
	traces, ok := data.(ptrace.Traces)
	if !ok {
		return nil
	}

	spanCount := traces.SpanCount()
	resourceSpans := traces.ResourceSpans()
	for i := 0; i < resourceSpans.Len(); i++ {
		scopeSpans := resourceSpans.At(i).ScopeSpans()
		for j := 0; j < scopeSpans.Len(); j++ {
			spans := scopeSpans.At(j).Spans()
			for k := 0; k < spans.Len(); k++ {
				span := spans.At(k)
				logger.Infof("trace span name=%s trace_id=%s duration=%s",
					span.Name(), span.TraceID().String(),
					span.EndTimestamp().AsTime().Sub(span.StartTimestamp().AsTime()))
			}
		}
	}
	logger.Infof("flushed trace batch spans=%d", spanCount)
	return nil
}

func (s *Sinker) Close() {}
