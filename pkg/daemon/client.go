// Package daemon provides a client interface for interacting with the nowplay
// daemon (nowplayd). It implements a transparent fallback pattern: if the
// daemon is running, use its HTTP API over the unix socket; if not, fall back
// to a direct one-shot read of the game client.
package daemon

import (
	"context"

	"github.com/nowplaybot/nowplay/pkg/models"
)

// State is the daemon's published state as served by /api/state.
type State struct {
	Game       *models.GameState `json:"game,omitempty"`
	Generation uint64            `json:"generation"`
	Source     string            `json:"source,omitempty"`
}

// Client defines the interface for reading game state. Both RemoteClient
// (daemon HTTP API) and LocalClient (direct client read) implement it.
type Client interface {
	// GetState returns the current snapshot and source label.
	GetState(ctx context.Context) (*State, error)

	// StreamState subscribes to real-time state updates from the daemon.
	// Returns a channel that receives updates; the channel is closed when
	// the context is cancelled or the connection is lost. LocalClient
	// returns an error since streaming requires the daemon.
	StreamState(ctx context.Context) (<-chan StateUpdate, error)

	// IsRunning returns true if the daemon is available and responding.
	IsRunning() bool

	// Close cleans up any resources used by the client.
	Close() error
}

// StateUpdate represents an update pushed from the daemon to subscribers.
type StateUpdate struct {
	Game       *models.GameState `json:"game,omitempty"`
	Source     string            `json:"source,omitempty"`
	Generation uint64            `json:"generation,omitempty"`
	UpdateType string            `json:"update_type"` // "initial", "game_state", "source", "config_reload"
	ConfigFile string            `json:"config_file,omitempty"`
}
