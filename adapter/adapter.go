// Package adapter defines the notification boundary for completed
// sessions. Adapters push a small completion event to downstream
// systems; the heavy data stays in the capture store.
package adapter

import (
	"context"
	"time"

	"github.com/tessellate-io/flume/types"
)

// EventType is the event type field value for session completions.
const EventType = "session_completed"

// SessionCompletedEvent is the payload published when a session finishes.
type SessionCompletedEvent struct {
	EventType    string `json:"event_type"` // always "session_completed"
	SessionID    string `json:"session_id"`
	Worker       string `json:"worker"`
	PayloadCount int    `json:"payload_count"`
	ExitCode     int    `json:"exit_code"`
	DurationMs   int64  `json:"duration_ms"`
	Timestamp    string `json:"timestamp"` // ISO 8601
	// CaptureKey locates the persisted capture, when one was stored.
	CaptureKey string `json:"capture_key,omitempty"`
}

// FromResult builds a completion event from a session result.
func FromResult(result *types.SessionResult, captureKey string) *SessionCompletedEvent {
	ev := &SessionCompletedEvent{
		EventType:    EventType,
		PayloadCount: len(result.Payloads),
		ExitCode:     result.ExitCode,
		DurationMs:   result.Duration.Milliseconds(),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		CaptureKey:   captureKey,
	}
	if result.Meta != nil {
		ev.SessionID = result.Meta.SessionID
		ev.Worker = result.Meta.Worker
	}
	return ev
}

// Adapter publishes session completion events to a downstream system.
type Adapter interface {
	// Publish sends a completion event. Must respect context
	// cancellation and deadlines.
	Publish(ctx context.Context, event *SessionCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
