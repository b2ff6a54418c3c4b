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

// Package h3tometrics turns a session lifecycle event into derived
// metric samples. The teacher kept one converter file per application
// wire protocol (amqp.go, redis.go, mysql.go, ...) behind a registry
// keyed by socket.L7Proto; this library speaks exactly one protocol, so
// the registry collapses into the handful of cases below.
package h3tometrics

import (
	"github.com/packetd/nghq/common"
	"github.com/packetd/nghq/processor"
)

const Name = "h3tometrics"

func init() {
	processor.Register(Name, New)
}

type Config struct {
	RequestLabels []string `config:"requestLabels"`
}

type Factory struct {
	cfg Config
}

func New(conf map[string]any) (processor.Processor, error) {
	var cfg Config
	if v, ok := conf["requestLabels"].([]string); ok {
		cfg.RequestLabels = v
	}
	return &Factory{cfg: cfg}, nil
}

func (f *Factory) Name() string { return Name }

func (f *Factory) Process(record *common.Record) (*common.Record, error) {
	ev, ok := record.Data.(*common.LifecycleEvent)
	if !ok {
		return nil, nil
	}

	var samples []*common.MetricSample
	switch ev.Kind {
	case common.EventRequestClosed:
		samples = f.requestSamples(ev)
	case common.EventPushMaterialised:
		samples = pushSamples("materialised")
	case common.EventPushCancelled:
		samples = pushSamples("cancelled")
	default:
		return nil, nil
	}
	if len(samples) == 0 {
		return nil, nil
	}
	return &common.Record{RecordType: common.RecordMetrics, Data: samples}, nil
}

func (f *Factory) Clean() {}

func (f *Factory) requestSamples(ev *common.LifecycleEvent) []*common.MetricSample {
	labels := map[string]string{
		"method": ev.Method,
		"status": ev.Status,
	}
	for _, l := range f.cfg.RequestLabels {
		if l == "path" {
			labels["path"] = ev.Path
		}
	}

	return []*common.MetricSample{
		{
			Name:   "requests_total",
			Help:   "HTTP/3 requests closed total",
			Kind:   common.MetricCounter,
			Value:  1,
			Labels: labels,
		},
		{
			Name:   "request_duration_seconds",
			Help:   "HTTP/3 request duration in seconds",
			Kind:   common.MetricHistogram,
			Value:  ev.Duration.Seconds(),
			Labels: labels,
		},
	}
}

func pushSamples(outcome string) []*common.MetricSample {
	return []*common.MetricSample{
		{
			Name:   "pushes_total",
			Help:   "Server pushes total, by outcome",
			Kind:   common.MetricCounter,
			Value:  1,
			Labels: map[string]string{"outcome": outcome},
		},
	}
}
