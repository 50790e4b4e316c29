package types

import (
	"errors"
	"fmt"
)

// SessionMeta carries session identity. One session is one channel
// address, one worker process, and one accumulated result.
type SessionMeta struct {
	// SessionID is the canonical session identifier. Must be non-empty.
	SessionID string
	// Worker is a short label for the worker being run (e.g. "pytest").
	// Used for logging and storage partitioning, never interpreted.
	Worker string
}

// Validate checks session identity rules.
func (m *SessionMeta) Validate() error {
	if m == nil {
		return errors.New("session meta must be non-nil")
	}
	if m.SessionID == "" {
		return errors.New("session_id must be non-empty")
	}
	if m.Worker == "" {
		return fmt.Errorf("worker label must be non-empty for session %s", m.SessionID)
	}
	return nil
}
