package daemon

import (
	"net"
	"os"
	"time"

	"github.com/nowplaybot/nowplay/config"
	"github.com/nowplaybot/nowplay/pkg/paths"
)

// New returns a Client that will use the daemon if available, otherwise
// falls back to LocalClient.
//
// This implements the "transparent daemon" pattern: callers don't need to
// know whether the daemon is running or not. The same API works in both
// modes.
func New(cfg *config.OsuConfig) Client {
	socketPath := paths.SocketPath()
	if _, err := os.Stat(socketPath); err == nil {
		conn, err := net.DialTimeout("unix", socketPath, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			if client, err := NewRemoteClient(socketPath); err == nil {
				return client
			}
		}
	}

	// Fallback: daemon not running, read the game client directly
	return NewLocalClient(cfg)
}
