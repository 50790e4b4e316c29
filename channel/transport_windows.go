//go:build windows

package channel

import (
	"net"
	"os"
	"sync"
	"time"

	"github.com/Microsoft/go-winio"
)

// pipeTransport is the Windows named-pipe backend.
type pipeTransport struct {
	name string
	ln   net.Listener

	closeOnce sync.Once
	closeErr  error
}

// newPlatformTransport binds a named pipe in the \\.\pipe\ namespace.
func newPlatformTransport(name string) (Transport, error) {
	return newNamedPipeTransport(name)
}

func newUnixSocketTransport(string) (Transport, error) {
	return nil, ErrPlatformUnsupported
}

func newNamedPipeTransport(name string) (Transport, error) {
	ln, err := winio.ListenPipe(name, nil)
	if err != nil {
		return nil, &BindError{Addr: name, Err: err}
	}
	return &pipeTransport{name: name, ln: ln}, nil
}

func (t *pipeTransport) Addr() string {
	return t.name
}

// Accept waits for one inbound connection. go-winio listeners carry no
// deadline support, so the timeout is enforced by racing the accept
// against a timer; the pending accept drains once a late client arrives
// or the listener closes.
func (t *pipeTransport) Accept(timeout time.Duration) (net.Conn, error) {
	type acceptResult struct {
		conn net.Conn
		err  error
	}

	if timeout <= 0 {
		return t.ln.Accept()
	}

	ch := make(chan acceptResult, 1)
	go func() {
		conn, err := t.ln.Accept()
		ch <- acceptResult{conn: conn, err: err}
	}()

	select {
	case res := <-ch:
		return res.conn, res.err
	case <-time.After(timeout):
		return nil, os.ErrDeadlineExceeded
	}
}

// Close shuts the pipe listener down. The pipe name is released by the
// OS when the listener closes; there is no filesystem path to unlink.
func (t *pipeTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.ln.Close()
	})
	return t.closeErr
}
