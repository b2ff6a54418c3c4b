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

// ALPNToken is the application protocol identifier this library negotiates
// (spec §6): a draft-era HTTP/3-multicast token, distinct from the final
// "h3" RFC 9114 token since the wire format here predates it.
const ALPNToken = "hqm-05"

// SelectALPN picks ALPNToken out of the client-offered protocol list, or
// reports failure. s may be nil — e.g. during early connection setup
// before a Session exists — in which case selection fails immediately
// rather than dereferencing it (spec §9b).
func SelectALPN(s *Session, offered []string) (string, error) {
	if s == nil {
		return "", newErrorf(KindHTTPALPNFailed, "no session for ALPN negotiation")
	}
	for _, proto := range offered {
		if proto == ALPNToken {
			return ALPNToken, nil
		}
	}
	return "", newErrorf(KindHTTPALPNFailed, "peer did not offer %q", ALPNToken)
}
