// Package store provides the in-memory state store for the nowplay daemon.
package store

import (
	"github.com/nowplaybot/nowplay/pkg/models"
)

// State represents the complete world view of the daemon: the current game
// snapshot plus where it came from.
type State struct {
	// Game is the latest published snapshot, nil until the first
	// successful poll. The pointed-to value is immutable.
	Game *models.GameState `json:"game"`
	// Generation increments on every snapshot replacement.
	Generation uint64 `json:"generation"`
	// Source is the human-readable tracking status line, e.g.
	// "Stable (pid 1234)" or "Scanning...".
	Source string `json:"source"`
}

// UpdateType defines what kind of data changed.
type UpdateType string

const (
	UpdateGameState    UpdateType = "game_state"
	UpdateSource       UpdateType = "source"
	UpdateConfigReload UpdateType = "config_reload"
)

// Update represents a change to the state.
type Update struct {
	Type    UpdateType
	Source  string // Which collector sent this update (e.g., "unifier", "config")
	Payload interface{}
}
