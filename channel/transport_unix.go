//go:build !windows

package channel

import (
	"net"
	"os"
	"sync"
	"time"

	"github.com/tessellate-io/flume/iox"
)

// unixTransport is the Unix-domain socket backend.
type unixTransport struct {
	path string
	ln   *net.UnixListener

	closeOnce sync.Once
	closeErr  error
}

// newPlatformTransport binds a Unix-domain socket at path.
// A stale socket file from a crashed previous run is removed first.
func newPlatformTransport(path string) (Transport, error) {
	return newUnixSocketTransport(path)
}

func newNamedPipeTransport(string) (Transport, error) {
	return nil, ErrPlatformUnsupported
}

func newUnixSocketTransport(path string) (Transport, error) {
	if _, err := os.Stat(path); err == nil {
		iox.RemoveQuiet(path)
	}

	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, &BindError{Addr: path, Err: err}
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, &BindError{Addr: path, Err: err}
	}

	return &unixTransport{path: path, ln: ln}, nil
}

func (t *unixTransport) Addr() string {
	return t.path
}

// Accept waits for one inbound connection. A zero timeout blocks until
// a worker connects; otherwise the listener deadline is armed so expiry
// surfaces as a timeout error.
func (t *unixTransport) Accept(timeout time.Duration) (net.Conn, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := t.ln.SetDeadline(deadline); err != nil {
		return nil, err
	}
	return t.ln.Accept()
}

// Close shuts the listener down and unlinks the socket path.
func (t *unixTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.ln.Close()
		iox.RemoveQuiet(t.path)
	})
	return t.closeErr
}
