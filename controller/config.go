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

package controller

import "time"

// Config controls the registry's session bookkeeping. There is no
// layer4Metrics/decoder knob here the way the teacher's Config carries:
// this library speaks exactly one wire protocol over one transport, so
// there is no port-based protocol dispatch left to configure.
type Config struct {
	// FreezeSeconds is how long a closed session id stays frozen against
	// reuse before the registry forgets it (registry.New's freezeSeconds).
	FreezeSeconds int64 `config:"freezeSeconds"`

	// SessionExpired is how long a session may sit idle before
	// removeExpiredSessions tears it down.
	SessionExpired time.Duration `config:"sessionExpired"`

	// EventQueueSize bounds the channel between session callbacks and the
	// pipeline/exporter consumer loop.
	EventQueueSize int `config:"eventQueueSize"`
}

func (c Config) GetSessionExpired() time.Duration {
	if c.SessionExpired < time.Minute {
		return 5 * time.Minute
	}
	return c.SessionExpired
}

func (c Config) GetEventQueueSize() int {
	if c.EventQueueSize <= 0 {
		return 1024
	}
	return c.EventQueueSize
}
