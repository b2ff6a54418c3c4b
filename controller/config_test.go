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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	assert.Equal(t, 5*time.Minute, cfg.GetSessionExpired())
	assert.Equal(t, 1024, cfg.GetEventQueueSize())

	cfg.SessionExpired = 10 * time.Minute
	cfg.EventQueueSize = 16
	assert.Equal(t, 10*time.Minute, cfg.GetSessionExpired())
	assert.Equal(t, 16, cfg.GetEventQueueSize())
}
