package daemon

import (
	"context"
	"fmt"

	"github.com/nowplaybot/nowplay/config"
	"github.com/nowplaybot/nowplay/internal/unifier"
)

// LocalClient implements Client by reading the game client directly, without
// a running daemon. Every GetState is a fresh probe and poll, so it is slower
// than the daemon path but needs no setup.
type LocalClient struct {
	cfg *config.OsuConfig
}

// NewLocalClient creates a client that reads game state directly.
func NewLocalClient(cfg *config.OsuConfig) *LocalClient {
	return &LocalClient{cfg: cfg}
}

// GetState probes for a running client and reads one snapshot.
func (c *LocalClient) GetState(ctx context.Context) (*State, error) {
	gs, source, err := unifier.Snapshot(ctx, c.cfg)
	if err != nil {
		return nil, err
	}
	return &State{Game: gs, Source: source}, nil
}

// StreamState is not available without the daemon.
func (c *LocalClient) StreamState(ctx context.Context) (<-chan StateUpdate, error) {
	return nil, fmt.Errorf("streaming requires the daemon; start it with 'nowplay daemon start'")
}

// IsRunning always returns false: there is no daemon behind this client.
func (c *LocalClient) IsRunning() bool {
	return false
}

// Close is a no-op for the local client.
func (c *LocalClient) Close() error {
	return nil
}

// Ensure LocalClient implements Client interface.
var _ Client = (*LocalClient)(nil)
