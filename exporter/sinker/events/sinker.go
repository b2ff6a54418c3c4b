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

// Package events sinks raw *common.LifecycleEvent values as one JSON line
// per event to a rotated log file, the direct successor of the teacher's
// roundtrip file sink (exporter/sinker/roundtrips).
package events

import (
	"io"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/packetd/nghq/common"
	"github.com/packetd/nghq/exporter"
	"github.com/packetd/nghq/internal/json"
)

func init() {
	exporter.Register(common.RecordEvents, New)
}

type Sinker struct {
	mu  sync.Mutex
	out io.Writer
	lj  *lumberjack.Logger
}

func New(conf exporter.Config) (exporter.Sinker, error) {
	cfg := conf.Events

	lj := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
	}

	var out io.Writer = lj
	if cfg.Console {
		out = io.MultiWriter(lj, os.Stdout)
	}

	return &Sinker{out: out, lj: lj}, nil
}

func (s *Sinker) Name() common.RecordType {
	return common.RecordEvents
}

func (s *Sinker) Sink(data any) error {
	ev, ok := data.(*common.LifecycleEvent)
	if !ok {
		return nil
	}

	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.out.Write(b)
	return err
}

func (s *Sinker) Close() {
	s.lj.Close()
}
