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

// Package transportshim is a reference implementation of the transport
// half of the host callback table (spec.md §6) against a real
// *net.UDPConn: it supplies Recv/Send and an optional timer capability.
// Nothing in h3 requires it — any host implementing the callback table can
// drive a *h3.Session without this package — but every host still needs
// something to turn socket reads into session.Recv calls, and this is it.
// The protocol-level callbacks (OnHeaders, OnDataRecv, ...) remain the
// embedding host's responsibility; a UDPShim only ever fills in the
// transport corner of a Callbacks implementation.
package transportshim

import (
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/packetd/nghq/h3"
)

func newError(format string, args ...any) error {
	return errors.Errorf("transportshim: "+format, args...)
}

// Stats are the datagram counters a UDPShim keeps for itself.
type Stats struct {
	ReceivedPackets uint64
	ReceivedBytes   uint64
	SentPackets     uint64
	SentBytes       uint64
}

// UDPShim wires a live UDP socket to a *h3.Session's Recv/Send path. One
// UDPShim backs exactly one session, mirroring the one-goroutine-per-flow
// shape spec.md's concurrency model assumes (SPEC_FULL.md §5).
type UDPShim struct {
	conn      *net.UDPConn
	remote    *net.UDPAddr
	connected bool
	stats     Stats
	closed    bool
}

// DialUnicast opens a connected UDP socket for the unicast profile: local
// is the address to bind ("" picks an ephemeral port), remote is the peer
// every Send targets and the only peer Recv accepts from.
func DialUnicast(local, remote string) (*UDPShim, error) {
	raddr, err := net.ResolveUDPAddr("udp", remote)
	if err != nil {
		return nil, errors.Wrap(err, "resolve remote address")
	}
	var laddr *net.UDPAddr
	if local != "" {
		laddr, err = net.ResolveUDPAddr("udp", local)
		if err != nil {
			return nil, errors.Wrap(err, "resolve local address")
		}
	}
	conn, err := net.DialUDP("udp", laddr, raddr)
	if err != nil {
		return nil, errors.Wrap(err, "dial udp")
	}
	return &UDPShim{conn: conn, remote: raddr, connected: true}, nil
}

// ListenMulticast joins group on iface's interface for the multicast
// profile's receive side (spec.md §4.9's bearer has one sender, N
// receivers). iface may be nil to let the kernel pick.
func ListenMulticast(group string, iface *net.Interface) (*UDPShim, error) {
	gaddr, err := net.ResolveUDPAddr("udp", group)
	if err != nil {
		return nil, errors.Wrap(err, "resolve multicast group")
	}
	conn, err := net.ListenMulticastUDP("udp", iface, gaddr)
	if err != nil {
		return nil, errors.Wrap(err, "listen multicast")
	}
	return &UDPShim{conn: conn, remote: gaddr}, nil
}

// Send implements h3.Callbacks.Send: one call writes one datagram. A
// DialUnicast'd socket is already connected to its peer, and Go's net
// package rejects WriteToUDP on a connected socket, so Send branches on
// how the shim was built: Write for the unicast/connected case,
// WriteToUDP at the joined group address for the multicast/unconnected
// case.
func (u *UDPShim) Send(buf []byte) (int, error) {
	var (
		n   int
		err error
	)
	if u.connected {
		n, err = u.conn.Write(buf)
	} else {
		n, err = u.conn.WriteToUDP(buf, u.remote)
	}
	if err != nil {
		return 0, newError("write datagram: %v", err)
	}
	u.stats.SentPackets++
	u.stats.SentBytes += uint64(n)
	return n, nil
}

// Recv implements h3.Callbacks.Recv: blocks for the next datagram.
// ReadFromUDP works on both connected and unconnected UDP sockets.
func (u *UDPShim) Recv(buf []byte) (int, error) {
	n, _, err := u.conn.ReadFromUDP(buf)
	if err != nil {
		return 0, newError("read datagram: %v", err)
	}
	u.stats.ReceivedPackets++
	u.stats.ReceivedBytes += uint64(n)
	return n, nil
}

// Stats returns a snapshot of the shim's datagram counters.
func (u *UDPShim) Stats() Stats { return u.stats }

// Close releases the underlying socket. Safe to call more than once.
func (u *UDPShim) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	return u.conn.Close()
}

// Run drives sess off this shim's socket until Close is called or the
// session reports a fatal error: read one datagram, feed it to the
// session, reconcile timers against the wall clock, then let the session
// flush whatever it now has queued to send.
func (u *UDPShim) Run(sess *h3.Session, maxPacketSize int) error {
	buf := make([]byte, h3.BufferReadSize)
	for {
		n, err := u.Recv(buf)
		if err != nil {
			if u.closed {
				return nil
			}
			return err
		}

		if err := sess.Recv(buf[:n]); err != nil {
			return err
		}
		sess.ReconcileTimers(time.Now().UnixNano())
		if _, err := sess.Send(maxPacketSize); err != nil {
			return err
		}
	}
}

// Timer implements h3.TimerCallbacks on top of time.AfterFunc, for hosts
// that have no event loop timer wheel of their own to reconcile against.
type Timer struct{}

func (Timer) SetTimer(seconds float64, fire func()) any {
	return time.AfterFunc(toDuration(seconds), fire)
}

func (Timer) ResetTimer(handle any, seconds float64) {
	if t, ok := handle.(*time.Timer); ok {
		t.Reset(toDuration(seconds))
	}
}

func (Timer) CancelTimer(handle any) {
	if t, ok := handle.(*time.Timer); ok {
		t.Stop()
	}
}

func toDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
