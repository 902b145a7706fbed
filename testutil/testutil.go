// Package testutil holds shared helpers for package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nowplaybot/nowplay/pkg/models"
)

// WriteConfig writes a config file into dir and returns its path.
func WriteConfig(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// GameState returns a fully populated snapshot for tests.
func GameState() *models.GameState {
	return &models.GameState{
		Client: models.ClientStable,
		Beatmap: &models.Beatmap{
			ID:             123456,
			Artist:         "Camellia",
			Title:          "Exit This Earth's Atmosphere",
			DifficultyName: "Escape",
			Creator:        "Asahina Momoko",
			Status:         models.StatusRanked,
			Attributes: models.DifficultyAttributes{
				FilePath: "beatmap.osu",
				SongsDir: "/tmp/songs",
			},
		},
		Mods: models.ModSet{
			{Acronym: "HD"},
			{Acronym: "DT"},
		},
		Status: models.ActivityListening,
		AsOf:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Estimate returns a PP estimate matching GameState.
func Estimate() *models.PPEstimate {
	return &models.PPEstimate{
		BeatmapID: 123456,
		Mods:      models.ModSet{{Acronym: "HD"}, {Acronym: "DT"}},
		Values: map[int]float64{
			95:  312,
			97:  356,
			98:  384,
			99:  421,
			100: 478,
		},
	}
}
