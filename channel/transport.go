// Package channel provides the local-channel transport and the session
// listener that accumulates the worker's framed output.
//
// One logical channel abstraction with two backends: Unix-domain sockets
// on POSIX platforms and named pipes on Windows, selected once at session
// start. Coordinator and listener code is written against the Transport
// interface only.
package channel

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// ErrPlatformUnsupported is returned when a channel kind is requested on
// a platform that cannot provide it.
var ErrPlatformUnsupported = errors.New("channel kind not supported on this platform")

// BindError wraps a failure to bind the channel address.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Transport is the capability surface a local channel backend must provide.
// Bind happens at construction; the transport is listening before New returns.
type Transport interface {
	// Addr returns the bound channel address.
	Addr() string
	// Accept waits for one inbound connection. A timeout of zero blocks
	// indefinitely; on expiry the returned error satisfies IsTimeout.
	Accept(timeout time.Duration) (net.Conn, error)
	// Close releases the channel resource, including any filesystem path.
	// Safe to call more than once.
	Close() error
}

// New binds the platform-native transport for addr: a Unix-domain socket
// on POSIX systems, a named pipe on Windows.
func New(addr string) (Transport, error) {
	return newPlatformTransport(addr)
}

// NewUnixSocket binds a Unix-domain socket transport explicitly.
// Returns ErrPlatformUnsupported on Windows.
func NewUnixSocket(path string) (Transport, error) {
	return newUnixSocketTransport(path)
}

// NewNamedPipe binds a named-pipe transport explicitly.
// Returns ErrPlatformUnsupported on non-Windows platforms.
func NewNamedPipe(name string) (Transport, error) {
	return newNamedPipeTransport(name)
}

// IsTimeout reports whether err is an accept/read deadline expiry.
func IsTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
