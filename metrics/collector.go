// Package metrics provides per-session metrics collection.
//
// The Collector accumulates counters during a single session. It is a leaf
// package with no internal dependencies. Listener statistics are absorbed
// at session completion rather than recorded live, avoiding shared mutable
// state across the listener/worker concurrency boundary.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all session metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Session lifecycle
	SessionsStarted   int64
	SessionsCompleted int64
	SessionsFailed    int64

	// Worker
	WorkerLaunchSuccess int64
	WorkerLaunchFailure int64

	// Listener (absorbed at session completion)
	BytesReceived  int64
	Reconnects     int64
	AcceptTimeouts int64

	// Codec
	FramesDecoded int64
	DecodeErrors  int64

	// Dimensions (informational, set at construction)
	Transport string
	Worker    string
	SessionID string
}

// Collector accumulates metrics during a single session.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	sessionsStarted   int64
	sessionsCompleted int64
	sessionsFailed    int64

	workerLaunchSuccess int64
	workerLaunchFailure int64

	bytesReceived  int64
	reconnects     int64
	acceptTimeouts int64

	framesDecoded int64
	decodeErrors  int64

	transport string
	worker    string
	sessionID string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(transport, worker, sessionID string) *Collector {
	return &Collector{
		transport: transport,
		worker:    worker,
		sessionID: sessionID,
	}
}

// IncSessionStarted records a session start.
func (c *Collector) IncSessionStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionsStarted++
}

// IncSessionCompleted records a successful session.
func (c *Collector) IncSessionCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionsCompleted++
}

// IncSessionFailed records a failed session.
func (c *Collector) IncSessionFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionsFailed++
}

// IncWorkerLaunchSuccess records a successful worker start.
func (c *Collector) IncWorkerLaunchSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workerLaunchSuccess++
}

// IncWorkerLaunchFailure records a failed worker start.
func (c *Collector) IncWorkerLaunchFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workerLaunchFailure++
}

// AddFramesDecoded records decoded frame count.
func (c *Collector) AddFramesDecoded(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.framesDecoded += n
}

// IncDecodeError records a stream decode failure.
func (c *Collector) IncDecodeError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decodeErrors++
}

// AbsorbListenerStats records listener counters at session completion.
func (c *Collector) AbsorbListenerStats(bytesReceived int64, reconnects, acceptTimeouts int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bytesReceived += bytesReceived
	c.reconnects += reconnects
	c.acceptTimeouts += acceptTimeouts
}

// Snapshot returns an immutable view of the current counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		SessionsStarted:     c.sessionsStarted,
		SessionsCompleted:   c.sessionsCompleted,
		SessionsFailed:      c.sessionsFailed,
		WorkerLaunchSuccess: c.workerLaunchSuccess,
		WorkerLaunchFailure: c.workerLaunchFailure,
		BytesReceived:       c.bytesReceived,
		Reconnects:          c.reconnects,
		AcceptTimeouts:      c.acceptTimeouts,
		FramesDecoded:       c.framesDecoded,
		DecodeErrors:        c.decodeErrors,
		Transport:           c.transport,
		Worker:              c.worker,
		SessionID:           c.sessionID,
	}
}
