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
	"github.com/gopacket/gopacket"

	"github.com/packetd/nghq/internal/varint"
)

// multicastMagicSize is the length of the pre-shared secret installed at
// every encryption level in place of a real negotiated key (spec §4.9).
const multicastMagicSize = 32

// ackFrameType is the QUIC short-header frame type byte for ACK (RFC 9000
// §19.3), reused unmodified since this library forges QUIC wire bytes, not
// an HTTP/3 frame.
const ackFrameType = 0x02

// StartClient drives the client side of the fabricated handshake: installs
// the shared magic at every level and submits an empty CRYPTO flight so the
// transport engine believes a real handshake occurred.
func (s *Session) StartClient(magic []byte) error {
	if len(magic) != multicastMagicSize {
		return newErrorf(KindBadUserData, "multicast magic must be %d bytes", multicastMagicSize)
	}
	for _, level := range []KeyLevel{LevelInitial, LevelHandshake, LevelApplication} {
		if err := s.engine.InstallKey(level, magic); err != nil {
			return wrapError(KindCryptoError, err, "install key at level %d", level)
		}
	}
	if err := s.engine.SubmitCryptoData(LevelInitial, nil); err != nil {
		return wrapError(KindCryptoError, err, "submit initial crypto data")
	}
	s.engine.SetAEADOverhead(0)
	s.handshakeComplete = true
	return nil
}

// StartServer mirrors StartClient for the server role, additionally
// fabricating the ACK the client would have sent acknowledging the
// server's (nonexistent) Initial flight, so the engine's loss-detection
// bookkeeping starts from a consistent state.
func (s *Session) StartServer(magic []byte) ([]byte, error) {
	if len(magic) != multicastMagicSize {
		return nil, newErrorf(KindBadUserData, "multicast magic must be %d bytes", multicastMagicSize)
	}
	for _, level := range []KeyLevel{LevelInitial, LevelHandshake, LevelApplication} {
		if err := s.engine.InstallKey(level, magic); err != nil {
			return nil, wrapError(KindCryptoError, err, "install key at level %d", level)
		}
	}
	if err := s.engine.SubmitCryptoData(LevelInitial, nil); err != nil {
		return nil, wrapError(KindCryptoError, err, "submit initial crypto data")
	}
	s.engine.SetAEADOverhead(0)
	s.handshakeComplete = true

	ack, err := s.buildFakeAck(0)
	if err != nil {
		return nil, err
	}
	return ack, nil
}

// expandPacketNumber recovers a full packet number from its truncated wire
// form given the largest packet number seen so far, per QUIC's
// packet-number expansion algorithm (RFC 9000 appendix A.3): pick the
// candidate closest to expected+1 among the values congruent to truncated
// modulo 2^(8*size).
func expandPacketNumber(truncated uint64, size int, largestSeen uint64) uint64 {
	expected := largestSeen + 1
	win := uint64(1) << (8 * uint(size))
	half := win / 2

	candidate := (expected &^ (win - 1)) | truncated
	if expected > half && candidate <= expected-half && candidate < (uint64(1)<<62)-win {
		return candidate + win
	}
	if candidate > expected+half && candidate >= win {
		return candidate - win
	}
	return candidate
}

// buildFakeAck synthesises a minimal short-header QUIC packet whose sole
// payload is an ACK frame acknowledging packetNumber, expanding it against
// the engine's last observed remote packet number (spec §4.9 "synthetic
// ACK construction"). The packet carries no AEAD protection: multicast
// mode runs with SetAEADOverhead(0) and a pre-shared key both sides trust.
func (s *Session) buildFakeAck(packetNumber uint64) ([]byte, error) {
	full := expandPacketNumber(packetNumber, 1, s.engine.RemotePacketNumber())

	buf := gopacket.NewSerializeBuffer()

	var frame []byte
	frame = append(frame, ackFrameType)
	frame = varint.Append(frame, full) // largest acknowledged
	frame = varint.Append(frame, 0)    // ack delay
	frame = varint.Append(frame, 0)    // ack range count
	frame = varint.Append(frame, 0)    // first ack range

	body, err := buf.AppendBytes(len(frame))
	if err != nil {
		return nil, wrapError(KindInternalError, err, "append ack frame")
	}
	copy(body, frame)

	header, err := buf.PrependBytes(1 + len(s.id))
	if err != nil {
		return nil, wrapError(KindInternalError, err, "prepend short header")
	}
	header[0] = 0x40 // short header, fixed bit set, spin/key-phase bits left at 0
	copy(header[1:], s.id)

	return append([]byte(nil), buf.Bytes()...), nil
}
