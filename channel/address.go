package channel

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
)

// DefaultAddressPrefix is used when no prefix is configured.
const DefaultAddressPrefix = "flume-rpc"

// NewAddress returns a fresh, collision-resistant channel address for
// this platform. Pure factory: the result is passed explicitly through
// session state, never stored globally.
func NewAddress(prefix string) string {
	if prefix == "" {
		prefix = DefaultAddressPrefix
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return addressFor(runtime.GOOS, prefix, suffix)
}

// addressFor builds the platform-specific address string.
// Windows named pipes use the \\.\pipe\ namespace; POSIX sockets live
// under the runtime directory when available, the temp dir otherwise.
func addressFor(goos, prefix, suffix string) string {
	if goos == "windows" {
		return fmt.Sprintf(`\\.\pipe\%s-%s-sock`, prefix, suffix)
	}
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s.sock", prefix, suffix))
}
