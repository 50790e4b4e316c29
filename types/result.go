package types

import "time"

// SessionResult is the outcome of one coordinated session run.
//
// A worker that produced zero bytes yields an empty Payloads slice and no
// error; a malformed stream never reaches a SessionResult at all.
type SessionResult struct {
	// Meta is the session identity.
	Meta *SessionMeta
	// Payloads is the ordered sequence of params mappings received from
	// the worker, terminal marker excluded.
	Payloads []Payload
	// Raw is the accumulated stream text exactly as received. Retained
	// for capture files; empty when the worker sent nothing.
	Raw string
	// ChannelAddr is the local channel address the session used.
	ChannelAddr string
	// ExitCode is the worker's exit code. Recorded for diagnostics only;
	// it does not influence decode success.
	ExitCode int
	// StderrOutput is the captured worker stderr.
	StderrOutput string
	// BytesReceived is the total number of bytes accumulated by the listener.
	BytesReceived int64
	// Reconnects is the number of times the listener re-accepted a connection.
	Reconnects int
	// Duration is the total wall-clock session duration.
	Duration time.Duration
}
