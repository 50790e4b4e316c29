package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// ChannelEnvVar is the environment variable through which the worker
// discovers the channel address.
const ChannelEnvVar = "TEST_RUN_PIPE"

// DefaultSearchPathVar is the search-path variable augmented so the
// worker can locate cooperating code.
const DefaultSearchPathVar = "PYTHONPATH"

// WorkerConfig configures one worker process.
type WorkerConfig struct {
	// Argv is the full worker command line. Argv[0] is the executable.
	Argv []string
	// Dir is the working directory for the worker. Empty inherits ours.
	Dir string
	// ChannelAddr is the local channel address injected via ChannelEnvVar.
	ChannelAddr string
	// SearchPaths are directories prepended to SearchPathVar.
	SearchPaths []string
	// SearchPathVar overrides the search-path variable name.
	// Defaults to DefaultSearchPathVar.
	SearchPathVar string
	// ExtraEnv holds additional KEY=VALUE entries for the worker.
	ExtraEnv []string
}

// WorkerResult represents the result of worker execution.
type WorkerResult struct {
	// ExitCode is the process exit code. Recorded for diagnostics; the
	// session outcome does not depend on it.
	ExitCode int
	// StderrBytes is the captured stderr output.
	StderrBytes []byte
}

// WorkerManager manages worker process lifecycle.
type WorkerManager struct {
	config *WorkerConfig
	cmd    *exec.Cmd
	stderr io.ReadCloser
}

// NewWorkerManager creates a new worker manager.
func NewWorkerManager(config *WorkerConfig) *WorkerManager {
	return &WorkerManager{config: config}
}

// Start starts the worker process. The channel address and search-path
// augmentation are injected into a copy of the current environment.
// Stderr is captured for diagnostics; stdout is discarded, since results
// arrive over the channel rather than the worker's standard streams.
func (m *WorkerManager) Start(ctx context.Context) error {
	if len(m.config.Argv) == 0 {
		return errors.New("worker argv must be non-empty")
	}
	if m.config.ChannelAddr == "" {
		return errors.New("worker channel address must be non-empty")
	}

	m.cmd = exec.CommandContext(ctx, m.config.Argv[0], m.config.Argv[1:]...)
	m.cmd.Dir = m.config.Dir
	m.cmd.Env = buildWorkerEnv(os.Environ(), m.config)

	stderr, err := m.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	m.stderr = stderr

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	return nil
}

// Wait waits for the worker to exit and returns the result.
// Must be called after Start.
func (m *WorkerManager) Wait() (*WorkerResult, error) {
	if m.cmd == nil {
		return nil, errors.New("worker not started")
	}

	// Drain stderr before reaping; Wait closes the pipe.
	stderrBytes, _ := io.ReadAll(m.stderr)

	err := m.cmd.Wait()

	result := &WorkerResult{StderrBytes: stderrBytes}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
				result.ExitCode = status.ExitStatus()
			} else {
				result.ExitCode = -1
			}
		} else {
			return nil, fmt.Errorf("worker wait failed: %w", err)
		}
	}

	return result, nil
}

// Kill terminates the worker process.
func (m *WorkerManager) Kill() error {
	if m.cmd != nil && m.cmd.Process != nil {
		return m.cmd.Process.Kill()
	}
	return nil
}

// buildWorkerEnv copies base and applies the channel address, the
// search-path prepend, and any extra entries. Later duplicates win.
func buildWorkerEnv(base []string, config *WorkerConfig) []string {
	env := append([]string{}, base...)
	env = append(env, ChannelEnvVar+"="+config.ChannelAddr)

	if len(config.SearchPaths) > 0 {
		pathVar := config.SearchPathVar
		if pathVar == "" {
			pathVar = DefaultSearchPathVar
		}
		joined := strings.Join(config.SearchPaths, string(os.PathListSeparator))
		if existing := lookupEnv(base, pathVar); existing != "" {
			joined = joined + string(os.PathListSeparator) + existing
		}
		env = append(env, pathVar+"="+joined)
	}

	env = append(env, config.ExtraEnv...)
	return deduplicateEnv(env)
}

// lookupEnv finds key in a KEY=VALUE slice, last occurrence wins.
func lookupEnv(env []string, key string) string {
	var value string
	for _, entry := range env {
		k, v, ok := strings.Cut(entry, "=")
		if ok && k == key {
			value = v
		}
	}
	return value
}

// deduplicateEnv keeps the last occurrence of each env var key.
// This ensures our appended values win over inherited duplicates.
func deduplicateEnv(env []string) []string {
	seen := make(map[string]int, len(env))
	for i, entry := range env {
		key, _, _ := strings.Cut(entry, "=")
		seen[key] = i
	}
	result := make([]string, 0, len(seen))
	for i, entry := range env {
		key, _, _ := strings.Cut(entry, "=")
		if seen[key] == i {
			result = append(result, entry)
		}
	}
	return result
}
