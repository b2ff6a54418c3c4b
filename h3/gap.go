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

// gap is a half-open stream-byte range within an active frame that has not
// yet been received. begin < end always holds.
type gap struct {
	begin, end uint64
}

// gapList tracks the unfilled ranges of an active frame. Gaps are kept
// disjoint and ordered ascending by begin; an empty list means the frame
// is ready for dispatch.
type gapList struct {
	gaps []gap
}

// newGapList returns the initial gap list for a freshly allocated active
// frame of the given size: a single gap covering the whole span.
func newGapList(size uint64) *gapList {
	gl := &gapList{}
	if size > 0 {
		gl.gaps = []gap{{0, size}}
	}
	return gl
}

// empty reports whether every byte of the frame has been filled.
func (gl *gapList) empty() bool {
	return len(gl.gaps) == 0
}

// punch removes [begin, end) from the gap list, splitting a gap into two,
// truncating one end, or deleting it entirely as required.
func (gl *gapList) punch(begin, end uint64) {
	if begin >= end {
		return
	}

	out := gl.gaps[:0:0]
	for _, g := range gl.gaps {
		if end <= g.begin || begin >= g.end {
			out = append(out, g)
			continue
		}
		if begin > g.begin {
			out = append(out, gap{g.begin, begin})
		}
		if end < g.end {
			out = append(out, gap{end, g.end})
		}
	}
	gl.gaps = out
}
