// Package ipc implements the header-delimited JSON frame codec.
//
// One frame on the wire:
//
//	Content-Length: <n>\r\n
//	Content-Type: application/json\r\n
//	\r\n
//	<exactly n bytes of JSON text>
//
// Frames are concatenated back-to-back with no separator beyond the body
// length. Header names match case-insensitively. Content-Length counts
// UTF-8 bytes of the body.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tessellate-io/flume/types"
)

// Header labels. Matching is case-insensitive on decode; encode emits
// the canonical casing.
const (
	HeaderContentLength = "Content-Length:"
	HeaderContentType   = "Content-Type:"
)

// ContentTypeJSON is the content type emitted for every frame.
const ContentTypeJSON = "application/json"

// Resync bounds. A body that fails to parse as JSON on first read is
// retried with subsequent lines appended, but never beyond these limits.
const (
	// MaxResyncLines is the maximum number of extra read-and-reparse
	// attempts for a desynchronized body.
	MaxResyncLines = 64
	// MaxResyncBytes is the maximum buffered body size during resync.
	MaxResyncBytes = 1 << 20
)

// FrameErrorKind classifies frame decoding errors.
type FrameErrorKind int

const (
	// FrameErrorMissingContentLength indicates no Content-Length header
	// appeared before a blank line or end of input.
	FrameErrorMissingContentLength FrameErrorKind = iota
	// FrameErrorMissingContentType indicates the line after Content-Length
	// was not a Content-Type header.
	FrameErrorMissingContentType
	// FrameErrorMissingSeparator indicates the headers were not followed
	// by an empty separator line.
	FrameErrorMissingSeparator
	// FrameErrorInvalidLength indicates the Content-Length value did not
	// parse as a non-negative integer.
	FrameErrorInvalidLength
	// FrameErrorDesyncExceeded indicates a body failed to parse as JSON
	// within the bounded resync retry.
	FrameErrorDesyncExceeded
	// FrameErrorMalformedEnvelope indicates an envelope missing the
	// params or jsonrpc key.
	FrameErrorMalformedEnvelope
	// FrameErrorVersionMismatch indicates a jsonrpc version other than "2.0".
	FrameErrorVersionMismatch
	// FrameErrorMissingTerminator indicates the last envelope of a stream
	// lacked the eot marker.
	FrameErrorMissingTerminator
)

// String returns the kind name for logging.
func (k FrameErrorKind) String() string {
	switch k {
	case FrameErrorMissingContentLength:
		return "missing_content_length"
	case FrameErrorMissingContentType:
		return "missing_content_type"
	case FrameErrorMissingSeparator:
		return "missing_separator"
	case FrameErrorInvalidLength:
		return "invalid_length"
	case FrameErrorDesyncExceeded:
		return "desync_exceeded"
	case FrameErrorMalformedEnvelope:
		return "malformed_envelope"
	case FrameErrorVersionMismatch:
		return "version_mismatch"
	case FrameErrorMissingTerminator:
		return "missing_terminator"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// FrameError represents a frame decoding error.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a *FrameError of the given kind.
func IsKind(err error, kind FrameErrorKind) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.Kind == kind
	}
	return false
}

// cutLine splits off the first line of s. The returned line excludes the
// trailing newline and carriage return; ok is false at end of input.
func cutLine(s string) (line, rest string, ok bool) {
	if s == "" {
		return "", "", false
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSuffix(s[:i], "\r"), s[i+1:], true
	}
	return s, "", true
}

// headerValue finds label in line case-insensitively and returns the
// trimmed text following it.
func headerValue(line, label string) (string, bool) {
	idx := strings.Index(strings.ToLower(line), strings.ToLower(label))
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(line[idx+len(label):]), true
}

// DecodeFrame decodes a single frame from the head of stream.
// Returns the parsed JSON object and whatever remains after the body.
//
// Header scanning skips lines until Content-Length is found; a blank line
// or end of input before that fails with FrameErrorMissingContentLength.
// A body that does not parse as JSON triggers a bounded resync: subsequent
// lines are appended and the growing buffer re-parsed, failing with
// FrameErrorDesyncExceeded once MaxResyncLines or MaxResyncBytes is hit.
func DecodeFrame(stream string) (map[string]any, string, error) {
	rest := stream
	var length int

	for {
		line, tail, ok := cutLine(rest)
		if !ok {
			return nil, "", &FrameError{
				Kind: FrameErrorMissingContentLength,
				Msg:  "header does not contain Content-Length",
			}
		}
		rest = tail

		if value, found := headerValue(line, HeaderContentLength); found {
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return nil, "", &FrameError{
					Kind: FrameErrorInvalidLength,
					Msg:  fmt.Sprintf("invalid Content-Length %q", value),
					Err:  err,
				}
			}
			length = n

			typeLine, typeTail, ok := cutLine(rest)
			if !ok {
				return nil, "", &FrameError{
					Kind: FrameErrorMissingContentType,
					Msg:  "header does not contain Content-Type",
				}
			}
			if _, found := headerValue(typeLine, HeaderContentType); !found {
				return nil, "", &FrameError{
					Kind: FrameErrorMissingContentType,
					Msg:  "header does not contain Content-Type",
				}
			}
			rest = typeTail

			sepLine, sepTail, ok := cutLine(rest)
			if !ok || strings.TrimSpace(sepLine) != "" {
				return nil, "", &FrameError{
					Kind: FrameErrorMissingSeparator,
					Msg:  "headers not followed by an empty separator line",
				}
			}
			rest = sepTail
			break
		}

		if strings.TrimSpace(line) == "" {
			return nil, "", &FrameError{
				Kind: FrameErrorMissingContentLength,
				Msg:  "header does not contain Content-Length",
			}
		}
	}

	body := rest
	if length < len(rest) {
		body = rest[:length]
		rest = rest[length:]
	} else {
		rest = ""
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(body), &obj); err == nil {
		return obj, rest, nil
	}

	// Resync: the declared length did not line up with a parseable JSON
	// body. Append subsequent lines and re-parse until it succeeds or the
	// bound is hit.
	for attempt := 0; attempt < MaxResyncLines; attempt++ {
		line, tail, ok := cutLine(rest)
		if !ok {
			break
		}
		rest = tail
		body += "\n" + line
		if len(body) > MaxResyncBytes {
			break
		}
		if err := json.Unmarshal([]byte(body), &obj); err == nil {
			return obj, rest, nil
		}
	}

	return nil, "", &FrameError{
		Kind: FrameErrorDesyncExceeded,
		Msg:  fmt.Sprintf("frame body failed to parse as JSON within %d resync attempts", MaxResyncLines),
	}
}

// DecodeStream decodes every frame in stream, validates envelope shape,
// and returns the ordered payload sequence with the terminal payload
// excluded.
//
// Every envelope must carry both params and jsonrpc keys, the version
// must be "2.0", and the last payload must carry the eot marker.
func DecodeStream(stream string) ([]types.Payload, error) {
	var payloads []types.Payload

	rest := stream
	for rest != "" {
		obj, tail, err := DecodeFrame(rest)
		if err != nil {
			return nil, err
		}
		rest = tail

		rawParams, hasParams := obj["params"]
		rawVersion, hasVersion := obj["jsonrpc"]
		if !hasParams || !hasVersion {
			return nil, &FrameError{
				Kind: FrameErrorMalformedEnvelope,
				Msg:  "envelope missing params or jsonrpc key",
			}
		}
		version, ok := rawVersion.(string)
		if !ok || version != types.JSONRPCVersion {
			return nil, &FrameError{
				Kind: FrameErrorVersionMismatch,
				Msg:  fmt.Sprintf("jsonrpc version %v is not %q", rawVersion, types.JSONRPCVersion),
			}
		}
		params, ok := rawParams.(map[string]any)
		if !ok {
			return nil, &FrameError{
				Kind: FrameErrorMalformedEnvelope,
				Msg:  "envelope params is not an object",
			}
		}

		payloads = append(payloads, types.Payload(params))
	}

	if len(payloads) == 0 {
		return nil, nil
	}

	last := payloads[len(payloads)-1]
	if !last.IsTerminal() {
		return nil, &FrameError{
			Kind: FrameErrorMissingTerminator,
			Msg:  "last envelope does not carry the eot marker",
		}
	}

	return payloads[:len(payloads)-1], nil
}
