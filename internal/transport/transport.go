// Package transport implements the pipe-transport contract (§4.2)
// using Unix domain sockets as the portable equivalent of Windows
// named pipes — explicitly licensed by §1 ("a portable implementation
// may pick equivalents"), grounded on the teacher's internal/socketdir
// package which uses the same `net.Listen("unix", ...)` approach for
// its own per-agent sockets.
package transport

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
)

const (
	connectRetries = 30
	connectDelay   = 100 * time.Millisecond
)

// Listen creates a persistent endpoint at path, removing any stale
// socket file left by a prior process first. The returned listener
// accepts an unbounded number of concurrent connections, matching the
// PIPE_UNLIMITED_INSTANCES contract.
func Listen(path string) (net.Listener, error) {
	if err := removeStaleSocket(path); err != nil {
		return nil, err
	}
	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	return l, nil
}

// removeStaleSocket unlinks path if it exists and nothing answers a
// dial against it (an earlier, now-dead process left it behind).
func removeStaleSocket(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	conn, err := net.DialTimeout("unix", path, 200*time.Millisecond)
	if err == nil {
		conn.Close()
		return fmt.Errorf("socket %s already in use: %w", path, model.ErrPipeBusy)
	}
	return os.Remove(path)
}

// Connect dials path, retrying up to connectRetries times at
// connectDelay intervals if the peer has not bound the endpoint yet
// (§4.2 connect contract).
func Connect(ctx context.Context, path string) (net.Conn, error) {
	var lastErr error
	for attempt := 0; attempt < connectRetries; attempt++ {
		conn, err := net.Dial("unix", path)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectDelay):
		}
	}
	return nil, fmt.Errorf("connect to %s after %d retries: %w: %v", path, connectRetries, model.ErrPipeUnavailable, lastErr)
}

// A net.Conn's Read and Write methods are already safe to call
// concurrently from separate goroutines (the stdlib net package
// guarantees this), so unlike the original Windows HANDLE-based
// transport, no explicit handle duplication is needed here for a
// reader and writer to share one connection without interleaving at
// the byte level (§9 "Handle duplication").
