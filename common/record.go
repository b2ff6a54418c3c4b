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

package common

import "time"

// RecordType names what a Record's Data field holds.
type RecordType string

const (
	// RecordEvents carries a raw LifecycleEvent straight off a session.
	RecordEvents RecordType = "events"
	// RecordMetrics carries a []MetricSample produced by a processor.
	RecordMetrics RecordType = "metrics"
	// RecordTraces carries a single trace span produced by a processor.
	RecordTraces RecordType = "traces"
)

// LifecycleKind classifies a session lifecycle event (spec.md §4, §9).
type LifecycleKind string

const (
	// EventRequestClosed fires once a stream's request/response exchange
	// is complete (on_request_close, spec.md §4.7/§9).
	EventRequestClosed LifecycleKind = "request_closed"
	// EventPushMaterialised fires when a promised push's stream closes
	// with status ok.
	EventPushMaterialised LifecycleKind = "push_materialised"
	// EventPushCancelled fires when a promised push is cancelled/rejected.
	EventPushCancelled LifecycleKind = "push_cancelled"
)

// LifecycleEvent is the tagged union carried through the pipeline,
// generalised from a single concrete socket.RoundTrip implementation
// (this library has exactly one wire protocol) into one struct covering
// every terminal stream event.
type LifecycleEvent struct {
	Kind      LifecycleKind
	SessionID []byte
	StreamID  uint64
	PushID    int64 // -1 when not a push-related event

	Method string
	Path   string
	Status string

	RequestHeaders  []HeaderField
	ResponseHeaders []HeaderField

	Start    time.Time
	Duration time.Duration
}

// HeaderField mirrors h3.HeaderField without importing the h3 package,
// keeping common dependency-free of the session engine it observes.
type HeaderField struct {
	Name  string
	Value string
}

// MetricSample is one derived metric value with its label set, the
// generic payload a metrics processor hands to the metrics sinker.
type MetricSample struct {
	Name   string
	Help   string
	Kind   MetricKind
	Value  float64
	Labels map[string]string
}

// MetricKind names the prometheus metric shape a MetricSample should be
// recorded as.
type MetricKind int

const (
	MetricCounter MetricKind = iota
	MetricHistogram
)

// Record is a tagged union carried through the pipeline: a processor
// consumes one Record and may produce a derived Record, which in turn
// either feeds the next processor in the chain or reaches the exporter.
type Record struct {
	RecordType RecordType
	Data       any
}

// NewEventRecord wraps a raw LifecycleEvent as the head of a pipeline run.
func NewEventRecord(ev *LifecycleEvent) *Record {
	return &Record{RecordType: RecordEvents, Data: ev}
}
