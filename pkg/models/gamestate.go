// Package models defines the canonical data model shared between the
// state unifier, metrics engine, renderer and dispatcher.
package models

import "time"

// ClientKind identifies which osu! client implementation a snapshot came from.
type ClientKind string

const (
	ClientStable ClientKind = "stable"
	ClientLazer  ClientKind = "lazer"
)

// Activity is the player's current gameplay status.
type Activity string

const (
	ActivityIdle      Activity = "idle"
	ActivityListening Activity = "listening"
	ActivityPlaying   Activity = "playing"
	ActivityEditing   Activity = "editing"
	ActivityUnknown   Activity = "unknown"
)

// GameState is one immutable snapshot of the observed client. A new snapshot
// replaces the previous one wholesale; nothing mutates a published snapshot.
//
// Beatmap is nil when no map is loaded. Consumers must treat that as a valid
// state, not an error.
type GameState struct {
	Client  ClientKind `json:"client"`
	Beatmap *Beatmap   `json:"beatmap,omitempty"`
	Mods    ModSet     `json:"mods,omitempty"`
	Status  Activity   `json:"status"`
	AsOf    time.Time  `json:"as_of"`

	// ModsKnown is true when the client's mod selection was actually
	// observed for this snapshot. An observed-but-empty selection during a
	// play is a real state (rendered as "NoMod"), distinct from mods not
	// being readable outside a play.
	ModsKnown bool `json:"mods_known,omitempty"`
}

// Same reports whether two snapshots describe the same observable state,
// ignoring the capture timestamp. The unifier uses it to suppress
// republishing identical snapshots every tick.
func (g *GameState) Same(other *GameState) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.Client != other.Client || g.Status != other.Status {
		return false
	}
	if g.ModsKnown != other.ModsKnown {
		return false
	}
	if !g.Mods.Equal(other.Mods) {
		return false
	}
	switch {
	case g.Beatmap == nil && other.Beatmap == nil:
		return true
	case g.Beatmap == nil || other.Beatmap == nil:
		return false
	}
	return g.Beatmap.ID == other.Beatmap.ID && *g.Beatmap == *other.Beatmap
}
