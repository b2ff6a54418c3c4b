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

// FakeTransportEngine is a minimal in-memory stand-in for a real QUIC
// implementation, used by this package's own tests and by hosts wiring a
// Session together before a production transport engine is available. It
// accepts whatever it is given and never blocks.
type FakeTransportEngine struct {
	InFlight       int
	AEADOverhead   int
	LastRemotePkt  uint64
	packetSize     int
	lossDeadline   int64
	lossDeadlineOK bool
	ackDeadline    int64
	ackDeadlineOK  bool

	WrittenStreams []FakeWrite
	ReadPackets    [][]byte
	ShutdownCalls  []uint64
	CryptoSubmits  []FakeCrypto
	InstalledKeys  []KeyLevel

	// NextFrames, if set, is returned (and cleared) by the next ReadPacket
	// call, letting a test script exactly what "arrived" at the HTTP/3
	// layer without modelling real QUIC encryption.
	NextFrames []StreamFrame
}

// FakeWrite records one WriteStream call for test assertions.
type FakeWrite struct {
	StreamID uint64
	Data     []byte
	Fin      bool
}

// FakeCrypto records one SubmitCryptoData call for test assertions.
type FakeCrypto struct {
	Level KeyLevel
	Data  []byte
}

// NewFakeTransportEngine returns a fake with a roomy default packet size.
func NewFakeTransportEngine() *FakeTransportEngine {
	return &FakeTransportEngine{packetSize: 1200, AEADOverhead: 16}
}

func (f *FakeTransportEngine) InstallKey(level KeyLevel, magic []byte) error {
	f.InstalledKeys = append(f.InstalledKeys, level)
	return nil
}

func (f *FakeTransportEngine) SubmitCryptoData(level KeyLevel, data []byte) error {
	f.CryptoSubmits = append(f.CryptoSubmits, FakeCrypto{Level: level, Data: data})
	return nil
}

func (f *FakeTransportEngine) WriteStream(streamID uint64, data []byte, fin bool) (int, []byte, error) {
	f.WrittenStreams = append(f.WrittenStreams, FakeWrite{StreamID: streamID, Data: append([]byte(nil), data...), Fin: fin})
	f.InFlight += len(data) + f.AEADOverhead
	pkt := append([]byte{0x40}, data...)
	return len(data), pkt, nil
}

func (f *FakeTransportEngine) WritePacket() ([]byte, bool, error) {
	return nil, false, nil
}

func (f *FakeTransportEngine) ReadPacket(pkt []byte) ([]StreamFrame, error) {
	f.ReadPackets = append(f.ReadPackets, pkt)
	frames := f.NextFrames
	f.NextFrames = nil
	return frames, nil
}

func (f *FakeTransportEngine) BytesInFlight() int { return f.InFlight }

func (f *FakeTransportEngine) SetAEADOverhead(n int) { f.AEADOverhead = n }

func (f *FakeTransportEngine) LossDetectionTimeout() (int64, bool) {
	return f.lossDeadline, f.lossDeadlineOK
}

func (f *FakeTransportEngine) AckDelayTimeout() (int64, bool) {
	return f.ackDeadline, f.ackDeadlineOK
}

func (f *FakeTransportEngine) FireLossDetection() {}

func (f *FakeTransportEngine) FireAckDelay() ([]byte, bool) { return nil, false }

func (f *FakeTransportEngine) ShutdownStream(streamID uint64, appErrorCode uint64) error {
	f.ShutdownCalls = append(f.ShutdownCalls, streamID)
	return nil
}

func (f *FakeTransportEngine) RemotePacketNumber() uint64 { return f.LastRemotePkt }

// SetLossDeadline and SetAckDeadline let a test arrange the next reported
// timer deadline.
func (f *FakeTransportEngine) SetLossDeadline(at int64, ok bool) { f.lossDeadline, f.lossDeadlineOK = at, ok }
func (f *FakeTransportEngine) SetAckDeadline(at int64, ok bool)  { f.ackDeadline, f.ackDeadlineOK = at, ok }
