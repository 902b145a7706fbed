// Package adapter defines the contract between the state unifier and the
// client-specific state sources.
package adapter

import (
	"context"

	"github.com/nowplaybot/nowplay/errors"
	"github.com/nowplaybot/nowplay/pkg/models"
)

// Adapter reads raw state out of one osu! client variant. Implementations
// hold whatever attachment they need (an open /proc mem handle, a websocket)
// and surface its loss through the error taxonomy below.
type Adapter interface {
	// Name identifies the adapter in logs ("stable", "lazer").
	Name() string

	// Poll performs one bounded read of the client's current state. The
	// returned facts are freshly allocated and owned by the caller.
	//
	// Error contract:
	//   - OSU_NOT_RUNNING: the client went away; detach and re-probe.
	//   - OSU_NOT_READY: client up but state not yet readable; retry next tick.
	//   - TORN_READ: a read raced a client-side write; discard this poll.
	Poll(ctx context.Context) (*models.RawStateFacts, error)

	// Close releases the attachment. Safe to call more than once.
	Close() error
}

// IsNotRunning reports whether err means the client process is gone.
func IsNotRunning(err error) bool {
	return errors.GetCode(err) == errors.ErrCodeNotRunning
}

// IsNotReady reports whether err means the client is starting up or between
// readable states.
func IsNotReady(err error) bool {
	return errors.GetCode(err) == errors.ErrCodeNotReady
}

// IsTornRead reports whether err means this poll observed mid-write garbage.
func IsTornRead(err error) bool {
	return errors.GetCode(err) == errors.ErrCodeTornRead
}
