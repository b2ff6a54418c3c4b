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

import "github.com/packetd/nghq/internal/rescue"

// noDeadline is the "cancel this timer" sentinel a deadline query returns
// in place of a Unix-nanosecond fire time.
const noDeadline = ^int64(0)

// ReconcileTimers asks the transport engine for its current loss-detection
// and ACK-delay deadlines and arms, resets or cancels the host timer
// handles to match. It is a no-op before the handshake completes (spec
// §4.10: timer-driven recovery only runs once there is a real RTT sample
// to drive it) and a no-op entirely if the host's Callbacks does not also
// implement TimerCallbacks.
func (s *Session) ReconcileTimers(now int64) {
	if !s.handshakeComplete {
		return
	}
	tc, ok := s.callbacks.(TimerCallbacks)
	if !ok {
		return
	}

	s.reconcileOne(tc, &s.lossTimer, now, s.engine.LossDetectionTimeout, guardedFire(func() { s.engine.FireLossDetection() }))
	s.reconcileOne(tc, &s.ackTimer, now, s.engine.AckDelayTimeout, guardedFire(func() {
		if pkt, ok := s.engine.FireAckDelay(); ok {
			s.outbound.push(pkt)
		}
	}))
}

// guardedFire wraps a timer-fire callback so a panic raised in the host's
// own timer goroutine (e.g. a time.AfterFunc callback) is recovered and
// logged instead of crashing the process (spec §5's timer-fire boundary).
func guardedFire(fire func()) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				for _, fn := range rescue.PanicHandlers {
					fn(r)
				}
			}
		}()
		fire()
	}
}

func (s *Session) reconcileOne(tc TimerCallbacks, slot *timerSlot, now int64, deadline func() (int64, bool), fire func()) {
	fireAt, ok := deadline()
	if !ok || fireAt == noDeadline {
		if slot.active {
			tc.CancelTimer(slot.handle)
			slot.active = false
		}
		return
	}

	seconds := float64(fireAt-now) / 1e9
	if seconds < 0 {
		seconds = 0
	}

	if !slot.active {
		slot.handle = tc.SetTimer(seconds, fire)
		slot.active = true
		return
	}
	tc.ResetTimer(slot.handle, seconds)
}
