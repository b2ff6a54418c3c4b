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

import (
	"context"

	"go.opentelemetry.io/collector/pdata/ptrace"

	"github.com/packetd/nghq/common"
	"github.com/packetd/nghq/confengine"
	"github.com/packetd/nghq/internal/tracestroage"
	"github.com/packetd/nghq/logger"
)

type Exporter struct {
	ctx    context.Context
	cancel context.CancelFunc
	conf   Config

	tracesStorage *tracestroage.Storage

	metricsSinker Sinker
	tracesSinker  Sinker
	eventsSinker  Sinker
}

func New(conf *confengine.Config) (*Exporter, error) {
	var cfg Config
	if err := conf.UnpackChild("exporter", &cfg); err != nil {
		return nil, err
	}
	cfg.Traces.Validate()
	cfg.Events.Validate()

	var err error
	var metricsSinker Sinker
	if cfg.Metrics.Enabled {
		if f := Get(common.RecordMetrics); f != nil {
			if metricsSinker, err = f(cfg); err != nil {
				return nil, err
			}
		}
	}

	var tracesSinker Sinker
	if cfg.Traces.Enabled {
		if f := Get(common.RecordTraces); f != nil {
			if tracesSinker, err = f(cfg); err != nil {
				return nil, err
			}
		}
	}

	var eventsSinker Sinker
	if cfg.Events.Enabled {
		if f := Get(common.RecordEvents); f != nil {
			if eventsSinker, err = f(cfg); err != nil {
				return nil, err
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	exp := &Exporter{
		ctx:           ctx,
		cancel:        cancel,
		conf:          cfg,
		tracesStorage: tracestroage.New(cfg.Traces.Batch, cfg.Traces.Interval),
		metricsSinker: metricsSinker,
		tracesSinker:  tracesSinker,
		eventsSinker:  eventsSinker,
	}
	return exp, nil
}

func (e *Exporter) Start() {
	if e.conf.Traces.Enabled && e.tracesSinker != nil {
		go e.loopExportTraces()
	}
}

func (e *Exporter) Close() {
	e.cancel()
	e.tracesStorage.Close()

	if e.metricsSinker != nil {
		e.metricsSinker.Close()
	}
	if e.tracesSinker != nil {
		e.tracesSinker.Close()
	}
	if e.eventsSinker != nil {
		e.eventsSinker.Close()
	}
}

func (e *Exporter) Export(record *common.Record) {
	switch record.RecordType {
	case common.RecordMetrics:
		if e.metricsSinker == nil {
			return
		}
		samples, ok := record.Data.([]*common.MetricSample)
		if !ok {
			return
		}
		if err := e.metricsSinker.Sink(samples); err != nil {
			logger.Errorf("sink metrics failed: %v", err)
		}

	case common.RecordTraces:
		if !e.conf.Traces.Enabled {
			return
		}
		span, ok := record.Data.(ptrace.Span)
		if !ok {
			return
		}
		e.tracesStorage.Push(span)

	case common.RecordEvents:
		if e.eventsSinker == nil {
			return
		}
		ev, ok := record.Data.(*common.LifecycleEvent)
		if !ok {
			return
		}
		if err := e.eventsSinker.Sink(ev); err != nil {
			logger.Errorf("sink events failed: %v", err)
		}
	}
}

func (e *Exporter) loopExportTraces() {
	for {
		select {
		case <-e.ctx.Done():
			return

		case traces := <-e.tracesStorage.Pop():
			if err := e.tracesSinker.Sink(traces); err != nil {
				logger.Errorf("sink traces failed: %v", err)
			}
		}
	}
}
