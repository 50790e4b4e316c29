// Package runtime orchestrates one session: a bound local channel, a
// worker process, and the decode of whatever the worker streamed back.
package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/tessellate-io/flume/channel"
	"github.com/tessellate-io/flume/iox"
	"github.com/tessellate-io/flume/ipc"
	"github.com/tessellate-io/flume/log"
	"github.com/tessellate-io/flume/metrics"
	"github.com/tessellate-io/flume/types"
)

// Worker abstracts worker process lifecycle for testing.
type Worker interface {
	Start(ctx context.Context) error
	Wait() (*WorkerResult, error)
	Kill() error
}

// WorkerFactory creates a Worker. Used for test injection.
type WorkerFactory func(config *WorkerConfig) Worker

// TransportFactory creates a bound transport for an address.
// Used for test injection; defaults to channel.New.
type TransportFactory func(addr string) (channel.Transport, error)

// SessionConfig configures a single session.
type SessionConfig struct {
	// Argv is the full worker command line.
	Argv []string
	// Dir is the worker's working directory.
	Dir string
	// SearchPaths are directories prepended to the worker's search-path
	// variable so it can locate cooperating code.
	SearchPaths []string
	// SearchPathVar overrides the search-path variable name.
	SearchPathVar string
	// ExtraEnv holds additional KEY=VALUE entries for the worker.
	ExtraEnv []string
	// Meta is the session identity.
	Meta *types.SessionMeta
	// AddressPrefix seeds channel address generation.
	AddressPrefix string
	// AcceptTimeout bounds the listener's reconnect-accept wait.
	AcceptTimeout time.Duration
	// WorkerFactory overrides worker creation (for testing).
	WorkerFactory WorkerFactory
	// TransportFactory overrides transport creation (for testing).
	TransportFactory TransportFactory
	// Collector records session metrics. Nil disables metrics
	// (all Collector methods are nil-safe).
	Collector *metrics.Collector
}

// SessionCoordinator orchestrates a single session end-to-end.
type SessionCoordinator struct {
	config    *SessionConfig
	logger    *log.Logger
	startTime time.Time
}

// NewSessionCoordinator creates a new session coordinator.
// Returns an error if session metadata is invalid.
func NewSessionCoordinator(config *SessionConfig) (*SessionCoordinator, error) {
	if err := config.Meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session metadata: %w", err)
	}

	return &SessionCoordinator{
		config: config,
		logger: log.NewLogger(config.Meta),
	}, nil
}

// listenOutcome is the single-shot hand-off from the listener goroutine
// to the coordinator, written once and read once after both units join.
type listenOutcome struct {
	raw string
	err error
}

// Execute runs the session end-to-end.
//
// Execution flow:
//  1. Generate a fresh channel address and bind the transport
//  2. Run the listener (concurrent) against the bound transport
//  3. Run the worker to completion (blocking), then set the completion signal
//  4. Join the listener
//  5. Decode the accumulated stream, if any
func (s *SessionCoordinator) Execute(ctx context.Context) (*types.SessionResult, error) {
	s.startTime = time.Now()
	s.config.Collector.IncSessionStarted()

	addr := channel.NewAddress(s.config.AddressPrefix)

	newTransport := s.config.TransportFactory
	if newTransport == nil {
		newTransport = channel.New
	}

	// The transport is bound and listening before the worker starts, so
	// the worker can never attempt to connect into nothing.
	transport, err := newTransport(addr)
	if err != nil {
		s.config.Collector.IncSessionFailed()
		s.logger.Error("channel bind failed", map[string]any{
			"addr":  addr,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("channel bind failed: %w", err)
	}

	listener := channel.NewListener(transport, s.logger, s.config.AcceptTimeout)

	completed := make(chan struct{})
	listenCh := make(chan listenOutcome, 1)
	go func() {
		raw, err := listener.Run(ctx, completed)
		listenCh <- listenOutcome{raw: raw, err: err}
	}()

	workerConfig := &WorkerConfig{
		Argv:          s.config.Argv,
		Dir:           s.config.Dir,
		ChannelAddr:   addr,
		SearchPaths:   s.config.SearchPaths,
		SearchPathVar: s.config.SearchPathVar,
		ExtraEnv:      s.config.ExtraEnv,
	}

	var worker Worker
	if s.config.WorkerFactory != nil {
		worker = s.config.WorkerFactory(workerConfig)
	} else {
		worker = NewWorkerManager(workerConfig)
	}

	if err := worker.Start(ctx); err != nil {
		s.config.Collector.IncWorkerLaunchFailure()
		s.config.Collector.IncSessionFailed()
		s.logger.Error("failed to start worker", map[string]any{
			"error": err.Error(),
		})
		// Unblock and join the listener before reporting failure.
		close(completed)
		<-listenCh
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}

	s.config.Collector.IncWorkerLaunchSuccess()
	s.logger.Info("worker started", map[string]any{
		"argv": s.config.Argv,
		"addr": addr,
	})

	// Kill the worker promptly on cancellation; Wait below still reaps
	// it. The goroutine exits once the completion signal is set.
	go func() {
		select {
		case <-ctx.Done():
			iox.DiscardErr(worker.Kill)
		case <-completed:
		}
	}()

	// Blocking worker execution. The completion signal transitions
	// exactly once, set only here, after the child has exited.
	workerRes, workerErr := worker.Wait()
	close(completed)

	listen := <-listenCh
	stats := listener.Stats()
	s.config.Collector.AbsorbListenerStats(stats.BytesReceived, stats.Reconnects, stats.AcceptTimeouts)

	if workerErr != nil {
		s.config.Collector.IncSessionFailed()
		s.logger.Error("worker wait failed", map[string]any{
			"error": workerErr.Error(),
		})
		return nil, fmt.Errorf("worker wait failed: %w", workerErr)
	}
	if listen.err != nil {
		s.config.Collector.IncSessionFailed()
		return nil, fmt.Errorf("listener aborted: %w", listen.err)
	}

	result := &types.SessionResult{
		Meta:          s.config.Meta,
		Raw:           listen.raw,
		ChannelAddr:   addr,
		ExitCode:      workerRes.ExitCode,
		StderrOutput:  string(workerRes.StderrBytes),
		BytesReceived: stats.BytesReceived,
		Reconnects:    int(stats.Reconnects),
	}

	if listen.raw == "" {
		// A worker that produced nothing sent zero messages. Distinct
		// from a decode failure, and not an error.
		s.logger.Info("worker produced no data", map[string]any{
			"exit_code": workerRes.ExitCode,
		})
	} else {
		payloads, err := ipc.DecodeStream(listen.raw)
		if err != nil {
			s.config.Collector.IncDecodeError()
			s.config.Collector.IncSessionFailed()
			s.logger.Error("stream decode failed", map[string]any{
				"error": err.Error(),
				"bytes": stats.BytesReceived,
			})
			return nil, err
		}
		result.Payloads = payloads
		// Terminal envelope is decoded but not returned.
		s.config.Collector.AddFramesDecoded(int64(len(payloads)) + 1)
	}

	result.Duration = time.Since(s.startTime)
	s.config.Collector.IncSessionCompleted()
	s.logger.Info("session completed", map[string]any{
		"payloads":   len(result.Payloads),
		"exit_code":  result.ExitCode,
		"bytes":      result.BytesReceived,
		"reconnects": result.Reconnects,
		"duration":   result.Duration.String(),
	})

	return result, nil
}
