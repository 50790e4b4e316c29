package channel

import (
	"strings"
	"testing"
)

func TestNewAddress_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		addr := NewAddress("flume-test")
		if seen[addr] {
			t.Fatalf("duplicate address generated: %s", addr)
		}
		seen[addr] = true
	}
}

func TestNewAddress_DefaultPrefix(t *testing.T) {
	addr := NewAddress("")
	if !strings.Contains(addr, DefaultAddressPrefix) {
		t.Errorf("address %q does not contain default prefix", addr)
	}
}

func TestAddressFor_Windows(t *testing.T) {
	addr := addressFor("windows", "flume-test", "abc123")
	want := `\\.\pipe\flume-test-abc123-sock`
	if addr != want {
		t.Errorf("addressFor(windows) = %q, want %q", addr, want)
	}
}

func TestAddressFor_Unix(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	addr := addressFor("linux", "flume-test", "abc123")
	want := "/run/user/1000/flume-test-abc123.sock"
	if addr != want {
		t.Errorf("addressFor(linux) = %q, want %q", addr, want)
	}
}

func TestAddressFor_UnixFallsBackToTempDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")
	addr := addressFor("linux", "flume-test", "abc123")
	if !strings.HasSuffix(addr, "flume-test-abc123.sock") {
		t.Errorf("address %q does not end with expected socket name", addr)
	}
	if strings.HasPrefix(addr, "flume-test") {
		t.Errorf("address %q is not rooted in a directory", addr)
	}
}
