package unifier

import (
	"strings"
	"time"

	"github.com/nowplaybot/nowplay/internal/adapter/lazer"
	"github.com/nowplaybot/nowplay/internal/adapter/stable"
	"github.com/nowplaybot/nowplay/pkg/models"
)

// Stable client gameplay status codes.
const (
	stableStatusMenu           = 0
	stableStatusEdit           = 1
	stableStatusPlay           = 2
	stableStatusExit           = 3
	stableStatusSelectEdit     = 4
	stableStatusSelectPlay     = 5
	stableStatusSelectDrawings = 6
	stableStatusRank           = 7
)

// stableRanked maps the stable client's submission status codes. Code 2 is
// genuinely ambiguous in the client's own data: pending and graveyarded maps
// share it.
var stableRanked = map[int32]models.RankedStatus{
	0: models.StatusUnknown,
	1: models.StatusNotSubmitted,
	2: models.StatusPendingOrGraveyard,
	3: models.StatusUnknown, // unused slot in the client enum
	4: models.StatusRanked,
	5: models.StatusApproved,
	6: models.StatusQualified,
	7: models.StatusLoved,
}

// lazerRanked maps the companion's ranked status names, which follow the
// lazer BeatmapOnlineStatus enum (codes -4..4 serialized as names).
var lazerRanked = map[string]models.RankedStatus{
	"none":            models.StatusUnknown,
	"locallymodified": models.StatusNotSubmitted,
	"notsubmitted":    models.StatusNotSubmitted,
	"pending":         models.StatusPending,
	"wip":             models.StatusWIP,
	"graveyard":       models.StatusGraveyard,
	"ranked":          models.StatusRanked,
	"approved":        models.StatusApproved,
	"qualified":       models.StatusQualified,
	"loved":           models.StatusLoved,
}

var lazerActivity = map[string]models.Activity{
	"idle":      models.ActivityIdle,
	"listening": models.ActivityListening,
	"playing":   models.ActivityPlaying,
	"editing":   models.ActivityEditing,
}

// Normalize converts raw adapter facts into a canonical snapshot. It is pure:
// same facts, same output (modulo asOf).
func Normalize(raw *models.RawStateFacts, asOf time.Time) *models.GameState {
	switch raw.Client {
	case models.ClientStable:
		return normalizeStable(raw.Stable, asOf)
	case models.ClientLazer:
		return normalizeLazer(raw.Lazer, asOf)
	default:
		return &models.GameState{Status: models.ActivityUnknown, AsOf: asOf}
	}
}

func normalizeStable(f *models.StableFacts, asOf time.Time) *models.GameState {
	gs := &models.GameState{
		Client: models.ClientStable,
		Status: stableActivity(f.ActivityCode),
		AsOf:   asOf,
	}

	if f.BeatmapLoaded {
		gs.Beatmap = &models.Beatmap{
			ID:             f.BeatmapID,
			Artist:         f.Artist,
			Title:          f.Title,
			DifficultyName: f.Difficulty,
			Creator:        f.Creator,
			Status:         stableRankedStatus(f.RankedCode),
			Attributes:     stable.BeatmapAttributes(f),
		}
	}

	if f.ModsRead {
		gs.Mods = models.ModsFromBitmask(f.ModsBits)
		gs.ModsKnown = true
	}

	return gs
}

func normalizeLazer(f *models.LazerFacts, asOf time.Time) *models.GameState {
	gs := &models.GameState{
		Client: models.ClientLazer,
		Status: lazerActivityStatus(f.Activity),
		AsOf:   asOf,
	}

	if f.BeatmapLoaded {
		gs.Beatmap = &models.Beatmap{
			ID:             f.BeatmapID,
			Artist:         f.Artist,
			Title:          f.Title,
			DifficultyName: f.Difficulty,
			Creator:        f.Creator,
			Status:         lazerRankedStatus(f.RankedName),
			Attributes:     lazer.BeatmapAttributes(f),
		}
	}

	if len(f.Mods) > 0 {
		gs.Mods = models.ModSet(f.Mods).Normalized()
	}
	// The companion reports the selection during a play even when it is
	// empty; that is a real "NoMod" state.
	gs.ModsKnown = len(f.Mods) > 0 || gs.Status == models.ActivityPlaying

	return gs
}

func stableActivity(code int32) models.Activity {
	switch code {
	case stableStatusMenu, stableStatusSelectPlay:
		return models.ActivityListening
	case stableStatusPlay:
		return models.ActivityPlaying
	case stableStatusEdit, stableStatusSelectEdit:
		return models.ActivityEditing
	case stableStatusExit, stableStatusSelectDrawings, stableStatusRank:
		return models.ActivityIdle
	default:
		return models.ActivityUnknown
	}
}

func stableRankedStatus(code int32) models.RankedStatus {
	if st, ok := stableRanked[code]; ok {
		return st
	}
	return models.StatusUnknown
}

func lazerRankedStatus(name string) models.RankedStatus {
	if st, ok := lazerRanked[strings.ToLower(strings.TrimSpace(name))]; ok {
		return st
	}
	return models.StatusUnknown
}

func lazerActivityStatus(name string) models.Activity {
	if a, ok := lazerActivity[strings.ToLower(strings.TrimSpace(name))]; ok {
		return a
	}
	return models.ActivityUnknown
}
