// Package store persists capture files to a storage backend. The file
// backend covers local workflows; the S3 backend covers shared buckets
// and S3-compatible providers.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested key does not exist.
var ErrNotFound = errors.New("capture not found")

// Store persists and retrieves capture blobs by key.
type Store interface {
	// Put writes data under key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte) error
	// Get reads the object at key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)
}

// CaptureKey computes the storage key for a session capture.
// Format: captures/<worker>/<day>/<session_id>.fcap
func CaptureKey(worker, sessionID string, at time.Time) string {
	return fmt.Sprintf("captures/%s/%s/%s.fcap", worker, at.UTC().Format("2006-01-02"), sessionID)
}

// ValidateKey rejects keys that would escape the storage root.
func ValidateKey(key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}
