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
	fasthttp2 "github.com/dgrr/http2"
)

// HeaderField is a single decompressed header name/value pair exchanged
// across the compression adapter boundary.
type HeaderField struct {
	Name  string
	Value string
}

// HeaderContext is the session-scoped adapter around the external
// HPACK-like codec (spec §4.5). init/free map to NewHeaderContext/Free; the
// same context serves both directions for the whole session lifetime. It
// is not safe for concurrent use — callers hold the session.
type HeaderContext struct {
	enc *fasthttp2.HPACK
	dec *fasthttp2.HPACK
}

// NewHeaderContext allocates a fresh compression context.
func NewHeaderContext() *HeaderContext {
	return &HeaderContext{
		enc: fasthttp2.AcquireHPACK(),
		dec: fasthttp2.AcquireHPACK(),
	}
}

// Encode compresses fields into a header block suitable for a HEADERS or
// PUSH_PROMISE frame.
func (hc *HeaderContext) Encode(fields []HeaderField) []byte {
	var buf []byte
	hf := &fasthttp2.HeaderField{}
	for _, f := range fields {
		hf.Reset()
		hf.SetBytes([]byte(f.Name), []byte(f.Value))
		buf = hc.enc.AppendHeaderField(buf, hf, true)
	}
	return buf
}

// Decode decompresses a header block back into name/value pairs.
func (hc *HeaderContext) Decode(block []byte) ([]HeaderField, error) {
	var out []HeaderField
	hf := &fasthttp2.HeaderField{}
	buf := block
	for len(buf) > 0 {
		hf.Reset()
		var err error
		buf, err = hc.dec.Next(hf, buf)
		if err != nil {
			return nil, wrapError(KindHdrCompressFailure, err, "header block decode failed")
		}
		if hf.Key() == "" {
			continue
		}
		out = append(out, HeaderField{Name: hf.Key(), Value: hf.Value()})
	}
	return out, nil
}

// Free releases the underlying HPACK tables back to their pool.
func (hc *HeaderContext) Free() {
	hc.enc.Reset()
	fasthttp2.ReleaseHPACK(hc.enc)
	hc.dec.Reset()
	fasthttp2.ReleaseHPACK(hc.dec)
}

// HasTrailerField reports whether fields name a "trailer" header, which
// promises a future trailers HEADERS block on the same stream (spec §4.6,
// TRAILERS_PROMISED flag).
func HasTrailerField(fields []HeaderField) bool {
	for _, f := range fields {
		if f.Name == "trailer" {
			return true
		}
	}
	return false
}
