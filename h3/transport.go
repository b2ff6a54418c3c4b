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

import "errors"

// KeyLevel names the encryption level a crypto operation applies to. The
// multicast handshake forger installs the same 32-byte magic at every
// level in place of a real negotiated key.
type KeyLevel int

const (
	LevelInitial KeyLevel = iota
	LevelHandshake
	LevelApplication
)

// Sentinel conditions the sender absorbs as "no progress this round"
// rather than surfacing as an error (spec §4.8, §7).
var (
	ErrStreamDataBlocked = errors.New("transport: stream data blocked")
	ErrShutWr            = errors.New("transport: shut wr")
	ErrStreamNotFound    = errors.New("transport: stream not found")
)

// StreamFrame is a single QUIC STREAM frame's contents as handed up from
// the transport engine: a raw (offset, bytes, fin) triple with no ordering
// or deduplication guarantee.
type StreamFrame struct {
	StreamID uint64
	Offset   uint64
	Data     []byte
	Fin      bool
}

// TransportEngine is the out-of-scope collaborator this package drives: a
// QUIC implementation that owns packet encryption, loss detection, path
// validation and packet numbering. The session engine never reaches past
// this interface into wire-level QUIC details.
type TransportEngine interface {
	// InstallKey installs magic (or a real key, outside multicast mode) at
	// the given encryption level.
	InstallKey(level KeyLevel, magic []byte) error

	// SubmitCryptoData hands the engine a CRYPTO-frame payload at level.
	SubmitCryptoData(level KeyLevel, data []byte) error

	// WriteStream asks the engine to encode up to len(data) bytes of the
	// given stream into a new packet. It returns how many source bytes
	// were accepted and the resulting packet bytes.
	WriteStream(streamID uint64, data []byte, fin bool) (sent int, packet []byte, err error)

	// WritePacket drains one more packet of the engine's own making (used
	// while forming a handshake flight); ok is false once the engine has
	// nothing left to send.
	WritePacket() (packet []byte, ok bool, err error)

	// ReadPacket feeds a received (or fabricated) packet to the engine and
	// returns the STREAM frames it decrypted out of it. The engine owns
	// QUIC-level decryption, ack processing and flow control; it does not
	// reassemble stream bytes across packets — that is this package's job
	// (spec §4.7), so frames may arrive out of order, overlapping or
	// duplicated exactly as they did on the wire.
	ReadPacket(pkt []byte) ([]StreamFrame, error)

	// BytesInFlight reports the engine's current unacknowledged byte count.
	BytesInFlight() int

	// SetAEADOverhead overrides the per-packet AEAD tag size the engine
	// assumes, so multicast's zero-overhead fiction lines up with packet
	// size arithmetic.
	SetAEADOverhead(n int)

	// LossDetectionTimeout and AckDelayTimeout report the engine's current
	// deadlines as Unix nanoseconds; ok=false means "cancel".
	LossDetectionTimeout() (fireAt int64, ok bool)
	AckDelayTimeout() (fireAt int64, ok bool)

	// FireLossDetection runs the engine's loss-detection routine.
	FireLossDetection()

	// FireAckDelay asks the engine for a fresh packet in response to an
	// ACK-delay timer firing.
	FireAckDelay() (packet []byte, ok bool)

	// ShutdownStream requests the engine close streamID with the given
	// HTTP/3 application error code.
	ShutdownStream(streamID uint64, appErrorCode uint64) error

	// RemotePacketNumber returns the last remote packet number observed,
	// used to expand truncated packet numbers in the fake-ACK forger.
	RemotePacketNumber() uint64
}
