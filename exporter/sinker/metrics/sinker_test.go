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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetd/nghq/common"
	"github.com/packetd/nghq/exporter"
)

func TestSinkRegistersAndUpdatesVectors(t *testing.T) {
	s, err := New(exporter.Config{})
	require.NoError(t, err)

	samples := []*common.MetricSample{
		{Name: "sinker_test_requests_total", Kind: common.MetricCounter, Value: 1, Labels: map[string]string{"method": "GET"}},
		{Name: "sinker_test_duration_seconds", Kind: common.MetricHistogram, Value: 0.25, Labels: map[string]string{"method": "GET"}},
	}
	require.NoError(t, s.Sink(samples))
	require.NoError(t, s.Sink(samples))

	cv := s.(*Sinker).counters["sinker_test_requests_total"]
	var m dto.Metric
	require.NoError(t, cv.vec.With(prometheus.Labels{"method": "GET"}).(prometheus.Counter).Write(&m))
	assert.Equal(t, float64(2), m.GetCounter().GetValue())
}

func TestSinkIgnoresUnknownPayload(t *testing.T) {
	s, err := New(exporter.Config{})
	require.NoError(t, err)
	assert.NoError(t, s.Sink("not a sample slice"))
}
