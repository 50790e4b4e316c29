// Package capture persists completed sessions as self-contained capture
// files: the raw stream exactly as received, the decoded payloads, and
// the session identity. Captures let the decode and inspect commands
// operate without re-running workers.
package capture

import (
	"fmt"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tessellate-io/flume/types"
)

// FormatVersion is the capture file format version.
// Bump on any incompatible change to the Capture shape.
const FormatVersion = "1"

// FileExtension is the conventional capture file extension.
const FileExtension = ".fcap"

// Capture is one persisted session.
type Capture struct {
	// FormatVersion is the capture format version at write time.
	FormatVersion string `msgpack:"format_version"`
	// SessionID is the session identity.
	SessionID string `msgpack:"session_id"`
	// Worker is the worker label.
	Worker string `msgpack:"worker"`
	// CreatedAt is the capture timestamp in ISO 8601 UTC format.
	CreatedAt string `msgpack:"created_at"`
	// ChannelAddr is the channel address the session used.
	ChannelAddr string `msgpack:"channel_addr"`
	// Raw is the accumulated stream text exactly as received.
	Raw string `msgpack:"raw"`
	// Payloads is the decoded payload sequence, terminal excluded.
	Payloads []types.Payload `msgpack:"payloads"`
	// ExitCode is the worker exit code.
	ExitCode int `msgpack:"exit_code"`
	// DurationMs is the session duration in milliseconds.
	DurationMs int64 `msgpack:"duration_ms"`
}

// FromResult builds a capture from a completed session result.
func FromResult(result *types.SessionResult) *Capture {
	c := &Capture{
		FormatVersion: FormatVersion,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		ChannelAddr:   result.ChannelAddr,
		Raw:           result.Raw,
		Payloads:      result.Payloads,
		ExitCode:      result.ExitCode,
		DurationMs:    result.Duration.Milliseconds(),
	}
	if result.Meta != nil {
		c.SessionID = result.Meta.SessionID
		c.Worker = result.Meta.Worker
	}
	return c
}

// Encode serializes the capture as msgpack.
func (c *Capture) Encode() ([]byte, error) {
	data, err := msgpack.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode capture: %w", err)
	}
	return data, nil
}

// Decode deserializes a msgpack capture, rejecting unknown format versions.
func Decode(data []byte) (*Capture, error) {
	var c Capture
	if err := msgpack.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}
	if c.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("unsupported capture format version %q", c.FormatVersion)
	}
	return &c, nil
}

// Write serializes the capture to path.
func Write(path string, c *Capture) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write capture %s: %w", path, err)
	}
	return nil
}

// Read loads a capture from path.
func Read(path string) (*Capture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capture %s: %w", path, err)
	}
	return Decode(data)
}
