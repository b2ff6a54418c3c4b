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
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a session-engine error. Kind values are stable and are
// the thing callers should branch on; Error() strings are for logs only.
type Kind int

const (
	KindOK Kind = iota
	KindSessionClosed
	KindSessionBlocked
	KindNoMoreData
	KindOutOfMemory
	KindInternalError
	KindTransportError
	KindTransportProtocol
	KindTransportVersion
	KindCryptoError
	KindBadUserData
	KindClientOnly
	KindServerOnly
	KindTooManyRequests
	KindPushLimitReached
	KindInvalidPushLimit
	KindRequestClosed
	KindTrailersNotPromised
	KindHdrCompressFailure
	KindHTTPPushRefused
	KindHTTPPushAlreadyInCache
	KindNotInterested
	KindHTTPWrongStream
	KindHTTPConnectError
	KindHTTPALPNFailed
	KindHTTPMalformedFrame
	KindHTTPDuplicatePush
	KindEOF
	KindGenericError
)

var kindNames = map[Kind]string{
	KindOK:                     "ok",
	KindSessionClosed:          "session-closed",
	KindSessionBlocked:         "session-blocked",
	KindNoMoreData:             "no-more-data",
	KindOutOfMemory:            "out-of-memory",
	KindInternalError:          "internal-error",
	KindTransportError:         "transport-error",
	KindTransportProtocol:      "transport-protocol",
	KindTransportVersion:       "transport-version",
	KindCryptoError:            "crypto-error",
	KindBadUserData:            "bad-user-data",
	KindClientOnly:             "client-only",
	KindServerOnly:             "server-only",
	KindTooManyRequests:        "too-many-requests",
	KindPushLimitReached:       "push-limit-reached",
	KindInvalidPushLimit:       "invalid-push-limit",
	KindRequestClosed:          "request-closed",
	KindTrailersNotPromised:    "trailers-not-promised",
	KindHdrCompressFailure:     "hdr-compress-failure",
	KindHTTPPushRefused:        "http-push-refused",
	KindHTTPPushAlreadyInCache: "http-push-already-in-cache",
	KindNotInterested:          "not-interested",
	KindHTTPWrongStream:        "http-wrong-stream",
	KindHTTPConnectError:       "http-connect-error",
	KindHTTPALPNFailed:         "http-alpn-failed",
	KindHTTPMalformedFrame:     "http-malformed-frame",
	KindHTTPDuplicatePush:      "http-duplicate-push",
	KindEOF:                    "eof",
	KindGenericError:           "generic-error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Error wraps a Kind with a message and, optionally, the error it was
// translated from (a transport-engine or HPACK-adapter failure).
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.kind.String() + ": " + e.msg + ": " + e.cause.Error()
	}
	return e.kind.String() + ": " + e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

func newErrorf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: pkgerrors.Errorf(format, args...).Error()}
}

func wrapError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: pkgerrors.Errorf(format, args...).Error(), cause: cause}
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error, and
// KindGenericError otherwise.
func KindOf(err error) Kind {
	if err == nil {
		return KindOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindGenericError
}
