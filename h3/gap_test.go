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

package h3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGapListFillsCompletely(t *testing.T) {
	gl := newGapList(100)
	assert.False(t, gl.empty())

	gl.punch(0, 40)
	assert.False(t, gl.empty())

	gl.punch(40, 100)
	assert.True(t, gl.empty())
}

func TestGapListSplitsOnMiddlePunch(t *testing.T) {
	gl := newGapList(100)
	gl.punch(30, 60)

	assert.Equal(t, []gap{{0, 30}, {60, 100}}, gl.gaps)
}

func TestGapListOverlappingPunchesAreIdempotent(t *testing.T) {
	gl := newGapList(50)
	gl.punch(0, 25)
	gl.punch(10, 25)
	gl.punch(25, 50)
	assert.True(t, gl.empty())
}

func TestGapListZeroSize(t *testing.T) {
	gl := newGapList(0)
	assert.True(t, gl.empty())
}
