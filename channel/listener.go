package channel

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/tessellate-io/flume/iox"
	"github.com/tessellate-io/flume/log"
)

// ReadChunkSize bounds a single read from the channel connection.
const ReadChunkSize = 1 << 20

// DefaultAcceptTimeout bounds the wait for a worker that may reconnect
// (or may never connect). On expiry the listener degrades to returning
// whatever it has accumulated.
const DefaultAcceptTimeout = time.Second

// Stats holds listener counters, read by the coordinator after Run returns.
type Stats struct {
	BytesReceived  int64
	Reconnects     int64
	AcceptTimeouts int64
}

// Listener accumulates raw text from exactly one logical session on a
// bound transport. It performs no validation of content; malformed bytes
// pass through unchanged to the codec stage.
type Listener struct {
	transport     Transport
	logger        *log.Logger
	acceptTimeout time.Duration
	stats         Stats
}

// NewListener creates a listener over a bound transport.
func NewListener(transport Transport, logger *log.Logger, acceptTimeout time.Duration) *Listener {
	if acceptTimeout <= 0 {
		acceptTimeout = DefaultAcceptTimeout
	}
	return &Listener{
		transport:     transport,
		logger:        logger,
		acceptTimeout: acceptTimeout,
	}
}

// Stats returns listener counters. Call only after Run has returned.
func (l *Listener) Stats() Stats {
	return l.stats
}

// Run accepts connections and accumulates everything the worker writes,
// until the completion signal is set or the worker stops reconnecting.
//
// Every disconnect is followed by a re-accept under a short timeout:
// a reconnected worker may already be queued in the accept backlog when
// the previous connection reports EOF, and that queued data must be
// drained even if the completion signal is set by then. Only a timed-out
// accept ends the session, yielding the accumulation as a normal result,
// never an error. The transport is released on all exit paths.
func (l *Listener) Run(ctx context.Context, completed <-chan struct{}) (string, error) {
	defer iox.DiscardClose(l.transport)

	var buf strings.Builder
	chunk := make([]byte, ReadChunkSize)

	conn, err := l.waitForWorker(ctx, completed)
	if err != nil || conn == nil {
		return buf.String(), err
	}

	for {
		n, readErr := conn.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			l.stats.BytesReceived += int64(n)
		}
		if readErr == nil {
			continue
		}
		iox.DiscardClose(conn)

		// Re-accept before consulting the completion signal: a worker
		// that reconnected and exited quickly may still have its
		// connection queued in the backlog.
		conn, err = l.transport.Accept(l.acceptTimeout)
		if err != nil {
			if IsTimeout(err) {
				l.stats.AcceptTimeouts++
				return buf.String(), nil
			}
			if ctx.Err() != nil {
				return buf.String(), ctx.Err()
			}
			if signalled(completed) {
				return buf.String(), nil
			}
			l.logger.Warn("accept failed, flushing partial data", map[string]any{
				"error": err.Error(),
			})
			return buf.String(), nil
		}
		l.stats.Reconnects++
	}
}

// waitForWorker waits for the first inbound connection. Accepts are
// retried under the short timeout so that a worker which exits without
// ever connecting does not hang the session: once the completion signal
// is set, an expired accept means zero data.
func (l *Listener) waitForWorker(ctx context.Context, completed <-chan struct{}) (net.Conn, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := l.transport.Accept(l.acceptTimeout)
		if err == nil {
			return c, nil
		}
		if !IsTimeout(err) {
			l.logger.Warn("accept failed before first connection", map[string]any{
				"error": err.Error(),
			})
			return nil, nil
		}
		if signalled(completed) {
			l.stats.AcceptTimeouts++
			return nil, nil
		}
	}
}

// signalled reports whether the completion signal has been set, without
// blocking.
func signalled(completed <-chan struct{}) bool {
	select {
	case <-completed:
		return true
	default:
		return false
	}
}
