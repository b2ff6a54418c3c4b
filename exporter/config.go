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

package exporter

import "time"

type Config struct {
	Traces  TracesConfig  `config:"traces"`
	Metrics MetricsConfig `config:"metrics"`
	Events  EventsConfig  `config:"events"`
}

// TracesConfig controls the batching of derived spans before they reach
// the traces sinker; there is no remote endpoint, since this repo's
// tracing output is a local structured-log sink, not an OTLP exporter.
type TracesConfig struct {
	Enabled  bool          `config:"enabled"`
	Batch    int           `config:"batch"`
	Interval time.Duration `config:"interval"`
}

func (tc *TracesConfig) Validate() {
	if tc.Batch <= 0 {
		tc.Batch = 100
	}
	if tc.Interval <= 0 {
		tc.Interval = 3 * time.Second
	}
}

// MetricsConfig controls the metrics sinker, which registers dynamic
// prometheus vectors and is scraped through the admin server's /metrics
// route rather than pushed to a remote endpoint.
type MetricsConfig struct {
	Enabled bool `config:"enabled"`
}

// EventsConfig controls the raw lifecycle-event log sinker, a lumberjack-
// rotated JSON-lines file mirroring the teacher's roundtrip log.
type EventsConfig struct {
	Enabled    bool   `config:"enabled"`
	Console    bool   `config:"console"`
	Filename   string `config:"filename"`
	MaxSize    int    `config:"maxSize"`
	MaxBackups int    `config:"maxBackups"`
	MaxAge     int    `config:"maxAge"`
}

func (ec *EventsConfig) Validate() {
	if ec.Filename == "" {
		ec.Filename = "events.log"
	}
	if ec.MaxSize <= 0 {
		ec.MaxSize = 100
	}
	if ec.MaxAge <= 0 {
		ec.MaxAge = 7
	}
	if ec.MaxBackups <= 0 {
		ec.MaxBackups = 10
	}
}
