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

// Package varint implements the QUIC variable-length integer encoding used
// throughout the HTTP/3 wire format: the top two bits of the first byte pick
// a length class (1, 2, 4 or 8 bytes) and the remaining bits of the class
// hold the value, big-endian.
package varint

import "errors"

// ErrShortBuffer is returned by Decode when buf does not yet hold a
// complete encoded integer and by Encode when out is too small.
var ErrShortBuffer = errors.New("varint: short buffer")

// ErrOutOfRange is returned by Encode when v exceeds the 62-bit range a
// QUIC varint can carry.
var ErrOutOfRange = errors.New("varint: value out of range")

const maxValue = 1<<62 - 1

// Len returns the number of bytes the encoding of v will occupy, without
// encoding it. It is the "length-peek" operation spec'd for the wire codec.
func Len(v uint64) int {
	switch {
	case v <= 63:
		return 1
	case v <= 16383:
		return 2
	case v <= 1073741823:
		return 4
	default:
		return 8
	}
}

// PeekLen inspects the first byte of an already-encoded varint (as seen on
// the wire) and returns how many bytes the full encoding occupies, without
// decoding the value.
func PeekLen(firstByte byte) int {
	switch firstByte >> 6 {
	case 0:
		return 1
	case 1:
		return 2
	case 2:
		return 4
	default:
		return 8
	}
}

// Encode writes v into out in QUIC varint form and returns the number of
// bytes written.
func Encode(v uint64, out []byte) (int, error) {
	n := Len(v)
	if n > len(out) {
		return 0, ErrShortBuffer
	}
	if v > maxValue {
		return 0, ErrOutOfRange
	}

	switch n {
	case 1:
		out[0] = byte(v)
	case 2:
		out[0] = 0x40 | byte(v>>8)
		out[1] = byte(v)
	case 4:
		out[0] = 0x80 | byte(v>>24)
		out[1] = byte(v >> 16)
		out[2] = byte(v >> 8)
		out[3] = byte(v)
	case 8:
		out[0] = 0xc0 | byte(v>>56)
		out[1] = byte(v >> 48)
		out[2] = byte(v >> 40)
		out[3] = byte(v >> 32)
		out[4] = byte(v >> 24)
		out[5] = byte(v >> 16)
		out[6] = byte(v >> 8)
		out[7] = byte(v)
	}
	return n, nil
}

// Append encodes v and appends it to dst, returning the extended slice.
func Append(dst []byte, v uint64) []byte {
	var tmp [8]byte
	n, _ := Encode(v, tmp[:])
	return append(dst, tmp[:n]...)
}

// Decode reads a varint from the front of buf and returns its value and the
// number of bytes consumed. It reports ErrShortBuffer if buf does not yet
// contain a complete encoding.
func Decode(buf []byte) (value uint64, n int, err error) {
	if len(buf) == 0 {
		return 0, 0, ErrShortBuffer
	}

	n = PeekLen(buf[0])
	if len(buf) < n {
		return 0, 0, ErrShortBuffer
	}

	switch n {
	case 1:
		value = uint64(buf[0] & 0x3f)
	case 2:
		value = uint64(buf[0]&0x3f)<<8 | uint64(buf[1])
	case 4:
		value = uint64(buf[0]&0x3f)<<24 | uint64(buf[1])<<16 | uint64(buf[2])<<8 | uint64(buf[3])
	case 8:
		value = uint64(buf[0]&0x3f)<<56 | uint64(buf[1])<<48 | uint64(buf[2])<<40 | uint64(buf[3])<<32 |
			uint64(buf[4])<<24 | uint64(buf[5])<<16 | uint64(buf[6])<<8 | uint64(buf[7])
	}
	return value, n, nil
}
