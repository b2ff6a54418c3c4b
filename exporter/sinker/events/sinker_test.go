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

package events

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetd/nghq/common"
	"github.com/packetd/nghq/exporter"
)

func TestSinkWritesJSONLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	s, err := New(exporter.Config{Events: exporter.EventsConfig{Filename: path, MaxSize: 1, MaxBackups: 1, MaxAge: 1}})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Sink(&common.LifecycleEvent{Kind: common.EventRequestClosed, Method: "GET", Path: "/x"}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"Method":"GET"`)
}

func TestSinkIgnoresUnknownPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	s, err := New(exporter.Config{Events: exporter.EventsConfig{Filename: path}})
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Sink(42))
}
