// Package worker provides the embedded reference worker shim.
//
// The shim is a small Python script embedded at build time and
// extracted to a temporary directory on first use, so the binary can
// demonstrate and exercise a full session without an external worker
// installation.
package worker

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tessellate-io/flume/types"
)

//go:embed shim/shim.py
var embeddedShim []byte

// extractOnce ensures extraction happens only once per process.
var extractOnce sync.Once
var extractedPath string
var extractErr error

// EmbeddedSize returns the size of the embedded shim in bytes.
func EmbeddedSize() int {
	return len(embeddedShim)
}

// EmbeddedChecksum returns the SHA256 checksum of the embedded shim.
func EmbeddedChecksum() string {
	hash := sha256.Sum256(embeddedShim)
	return hex.EncodeToString(hash[:])
}

// IsEmbedded returns true if a shim is embedded in this binary.
func IsEmbedded() bool {
	return len(embeddedShim) > 0
}

// ShimPath returns the path to the extracted shim. Extracts on first
// call; subsequent calls return the cached path.
func ShimPath() (string, error) {
	extractOnce.Do(func() {
		extractedPath, extractErr = extractShim()
	})
	return extractedPath, extractErr
}

// ShimArgv returns the command line for running the shim with the
// given interpreter. Extra args are passed through to the shim.
func ShimArgv(interpreter string, args ...string) ([]string, error) {
	path, err := ShimPath()
	if err != nil {
		return nil, err
	}
	if interpreter == "" {
		interpreter = "python3"
	}
	return append([]string{interpreter, path}, args...), nil
}

func extractShim() (string, error) {
	if !IsEmbedded() {
		return "", fmt.Errorf("no embedded shim available")
	}

	// Hash-based directory name lets multiple versions coexist.
	checksum := EmbeddedChecksum()[:16]
	dirName := fmt.Sprintf("flume-shim-%s-%s", types.Version, checksum)
	tempDir := filepath.Join(os.TempDir(), dirName)

	shimPath := filepath.Join(tempDir, "shim.py")

	// Already extracted (idempotent)
	if info, err := os.Stat(shimPath); err == nil && info.Size() == int64(len(embeddedShim)) {
		return shimPath, nil
	}

	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	if err := os.WriteFile(shimPath, embeddedShim, 0o755); err != nil {
		return "", fmt.Errorf("failed to write shim: %w", err)
	}

	return shimPath, nil
}

// Cleanup removes the extracted shim directory.
// Safe to call multiple times or if extraction never happened.
func Cleanup() error {
	if extractedPath == "" {
		return nil
	}
	if err := os.RemoveAll(filepath.Dir(extractedPath)); err != nil {
		return fmt.Errorf("failed to cleanup shim: %w", err)
	}
	return nil
}
