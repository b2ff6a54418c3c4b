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

// Package bufchain implements the ordered byte-buffer segment chain shared
// by a stream's outbound send queue and inbound receive store: an ordered
// list of (offset, bytes, complete) segments that tolerates out-of-order,
// overlapping and duplicate insertion on the receive side and supports
// head-compacting append on the send side.
package bufchain

// Segment is a single contiguous run of stream bytes starting at Offset.
// SendPos marks how much of Buf has already been handed to the scheduler;
// Remaining lets the scheduler consume from the head without reallocating.
type Segment struct {
	Buf      []byte
	Offset   uint64
	SendPos  int
	Complete bool
}

// Remaining returns the number of unsent bytes left in the segment.
func (s *Segment) Remaining() int {
	return len(s.Buf) - s.SendPos
}

// End returns the stream offset one past the last byte of the segment.
func (s *Segment) End() uint64 {
	return s.Offset + uint64(len(s.Buf))
}

// Chain is an ordered, always-sorted-by-Offset list of segments.
type Chain struct {
	segs []*Segment
}

// New constructs a detached segment; it does not insert it into a chain.
func New(buf []byte, complete bool, offset uint64) *Segment {
	return &Segment{Buf: buf, Offset: offset, Complete: complete}
}

// Empty reports whether the chain holds no segments.
func (c *Chain) Empty() bool { return len(c.segs) == 0 }

// Len returns the number of segments currently held.
func (c *Chain) Len() int { return len(c.segs) }

// Front returns the head segment, or nil if the chain is empty.
func (c *Chain) Front() *Segment {
	if len(c.segs) == 0 {
		return nil
	}
	return c.segs[0]
}

// At returns the segment at index i for read-only frame-fill scanning.
func (c *Chain) At(i int) *Segment {
	if i < 0 || i >= len(c.segs) {
		return nil
	}
	return c.segs[i]
}

// PopFront removes and releases the head segment.
func (c *Chain) PopFront() *Segment {
	if len(c.segs) == 0 {
		return nil
	}
	seg := c.segs[0]
	c.segs = c.segs[1:]
	return seg
}

// PushBack appends seg to the tail of the chain. Used for the outbound send
// queue, where frames are always produced in ascending offset order.
func (c *Chain) PushBack(seg *Segment) {
	c.segs = append(c.segs, seg)
}

// Clear releases every segment in the chain.
func (c *Chain) Clear() {
	c.segs = nil
}

// TrimAndAppend extends the tail segment by data, first compacting away any
// prefix already consumed by the scheduler (SendPos > 0). If the chain is
// empty a fresh segment is pushed instead.
func (c *Chain) TrimAndAppend(data []byte, complete bool) {
	if len(c.segs) == 0 {
		c.PushBack(New(data, complete, 0))
		return
	}

	tail := c.segs[len(c.segs)-1]
	if tail.SendPos > 0 {
		tail.Buf = append(tail.Buf[:0], tail.Buf[tail.SendPos:]...)
		tail.Offset += uint64(tail.SendPos)
		tail.SendPos = 0
	}
	tail.Buf = append(tail.Buf, data...)
	tail.Complete = tail.Complete || complete
}

// Insert places bytes received at offset into the chain, tolerating
// arbitrary overlap, duplication and out-of-order delivery (spec step 1 of
// the reassembly engine's insert algorithm). eos marks that this range ends
// the stream; it propagates into the covering segment's Complete flag.
func (c *Chain) Insert(offset uint64, data []byte, eos bool) {
	if len(data) == 0 {
		if eos && len(c.segs) > 0 {
			c.segs[len(c.segs)-1].Complete = true
		} else if eos {
			c.segs = append(c.segs, New(nil, true, offset))
		}
		return
	}

	end := offset + uint64(len(data))

	i := 0
	for ; i < len(c.segs); i++ {
		if c.segs[i].End() >= offset {
			break
		}
	}

	// No existing segment reaches far enough, or the next one starts after
	// the incoming range ends: splice in a fresh segment. The segments
	// before i all end strictly before offset, so none of them abuts the
	// incoming range and there is nothing to merge backward into.
	if i == len(c.segs) || c.segs[i].Offset > end {
		seg := New(append([]byte(nil), data...), eos, offset)
		c.segs = append(c.segs, nil)
		copy(c.segs[i+1:], c.segs[i:])
		c.segs[i] = seg
		return
	}

	// The found segment overlaps or abuts the incoming range. Rebuild its
	// buffer to span the union of both ranges; overlapping bytes are
	// assumed identical (duplicate delivery), so either source may win.
	found := c.segs[i]
	start := offset
	if found.Offset < start {
		start = found.Offset
	}
	stop := end
	if found.End() > stop {
		stop = found.End()
	}

	merged := make([]byte, stop-start)
	copy(merged[found.Offset-start:], found.Buf)
	copy(merged[offset-start:], data)
	found.Buf = merged
	found.Offset = start
	found.Complete = found.Complete || eos

	c.mergeForward(i)
}

// mergeForward absorbs any following segments that now abut or overlap
// segs[i] after an insert extended it.
func (c *Chain) mergeForward(i int) {
	cur := c.segs[i]
	j := i + 1
	for j < len(c.segs) {
		next := c.segs[j]
		if next.Offset > cur.End() {
			break
		}
		if next.End() > cur.End() {
			skip := next.End() - cur.End()
			tailStart := uint64(len(next.Buf)) - skip
			cur.Buf = append(cur.Buf, next.Buf[tailStart:]...)
		}
		cur.Complete = cur.Complete || next.Complete
		j++
	}
	if j > i+1 {
		c.segs = append(c.segs[:i+1], c.segs[j:]...)
	}
}
