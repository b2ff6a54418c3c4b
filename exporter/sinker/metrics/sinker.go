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

// Package metrics sinks derived *common.MetricSample values into
// dynamically registered prometheus vectors, scraped by the admin
// server's existing /metrics route rather than pushed to a remote
// endpoint (the teacher pushed to a Prometheus remote-write receiver via
// gogo/protobuf+snappy; this library has no such receiver to push to).
package metrics

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/packetd/nghq/common"
	"github.com/packetd/nghq/exporter"
	"github.com/packetd/nghq/internal/labels"
)

func init() {
	exporter.Register(common.RecordMetrics, New)
}

type counterHandle struct {
	vec    *prometheus.CounterVec
	byHash map[uint64]prometheus.Counter
}

type histogramHandle struct {
	vec    *prometheus.HistogramVec
	byHash map[uint64]prometheus.Observer
}

type Sinker struct {
	mu         sync.Mutex
	counters   map[string]*counterHandle
	histograms map[string]*histogramHandle
}

func New(conf exporter.Config) (exporter.Sinker, error) {
	return &Sinker{
		counters:   make(map[string]*counterHandle),
		histograms: make(map[string]*histogramHandle),
	}, nil
}

func (s *Sinker) Name() common.RecordType {
	return common.RecordMetrics
}

func (s *Sinker) Sink(data any) error {
	samples, ok := data.([]*common.MetricSample)
	if !ok {
		return nil
	}

	for _, sample := range samples {
		switch sample.Kind {
		case common.MetricCounter:
			s.counter(sample).Add(sample.Value)
		case common.MetricHistogram:
			s.histogram(sample).Observe(sample.Value)
		}
	}
	return nil
}

// toLabels turns a sample's map into a sorted labels.Labels so its Hash
// can key a per-label-set metric handle cache, skipping the
// map-allocate-and-lookup prometheus.CounterVec.With does on every call.
func toLabels(lbs map[string]string) labels.Labels {
	out := make(labels.Labels, 0, len(lbs))
	for k, v := range lbs {
		out = append(out, labels.Label{Name: k, Value: v})
	}
	sort.Sort(out)
	return out
}

func (s *Sinker) counter(sample *common.MetricSample) prometheus.Counter {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.counters[sample.Name]
	if !ok {
		vec := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: common.App,
			Name:      sample.Name,
			Help:      sample.Help,
		}, labelNames(sample.Labels))
		prometheus.MustRegister(vec)
		h = &counterHandle{vec: vec, byHash: make(map[uint64]prometheus.Counter)}
		s.counters[sample.Name] = h
	}

	lbs := toLabels(sample.Labels)
	key := lbs.Hash()
	c, ok := h.byHash[key]
	if !ok {
		c = h.vec.With(sample.Labels)
		h.byHash[key] = c
	}
	return c
}

func (s *Sinker) histogram(sample *common.MetricSample) prometheus.Observer {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histograms[sample.Name]
	if !ok {
		vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: common.App,
			Name:      sample.Name,
			Help:      sample.Help,
		}, labelNames(sample.Labels))
		prometheus.MustRegister(vec)
		h = &histogramHandle{vec: vec, byHash: make(map[uint64]prometheus.Observer)}
		s.histograms[sample.Name] = h
	}

	lbs := toLabels(sample.Labels)
	key := lbs.Hash()
	o, ok := h.byHash[key]
	if !ok {
		o = h.vec.With(sample.Labels)
		h.byHash[key] = o
	}
	return o
}

func labelNames(lbs map[string]string) []string {
	names := make([]string, 0, len(lbs))
	for k := range lbs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (s *Sinker) Close() {}
