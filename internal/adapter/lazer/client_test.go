package lazer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nowplaybot/nowplay/errors"
	"github.com/nowplaybot/nowplay/pkg/models"
)

func TestDecodeFrame(t *testing.T) {
	payload := []byte(`{
		"type": "state",
		"beatmap": {
			"id": 654321,
			"artist": "Camellia",
			"title": "Ghost",
			"difficulty": "Collab Another",
			"creator": "handsome",
			"ranked": "ranked",
			"hash": "ab12cd34"
		},
		"activity": "playing",
		"mods": [{"acronym": "DT", "settings": {"speed_change": 1.4}}],
		"storage": "/home/player/.local/share/osu"
	}`)

	facts, err := decodeFrame(payload)
	require.NoError(t, err)
	require.NotNil(t, facts)

	assert.True(t, facts.BeatmapLoaded)
	assert.Equal(t, int64(654321), facts.BeatmapID)
	assert.Equal(t, "playing", facts.Activity)
	assert.Equal(t, "ab12cd34", facts.Hash)
	require.Len(t, facts.Mods, 1)
	assert.Equal(t, "DT", facts.Mods[0].Acronym)
	assert.Equal(t, 1.4, facts.Mods[0].Settings["speed_change"])
}

func TestDecodeFrameNoBeatmap(t *testing.T) {
	facts, err := decodeFrame([]byte(`{"type":"state","activity":"idle"}`))
	require.NoError(t, err)
	require.NotNil(t, facts)
	assert.False(t, facts.BeatmapLoaded)
	assert.Empty(t, facts.Mods)
}

func TestDecodeFrameNonStateType(t *testing.T) {
	facts, err := decodeFrame([]byte(`{"type":"pong"}`))
	require.NoError(t, err)
	assert.Nil(t, facts, "non-state frames are ignored")
}

func TestDecodeFrameMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{"type": "state"`},
		{"missing activity", `{"type":"state"}`},
		{"negative beatmap id", `{"activity":"idle","beatmap":{"id":-1}}`},
		{"unnamed mod", `{"activity":"idle","mods":[{"settings":{}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeFrame([]byte(tt.payload))
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeTornRead, errors.GetCode(err))
		})
	}
}

func TestBeatmapAttributes(t *testing.T) {
	facts := &models.LazerFacts{
		Hash:       "ab12cd34",
		StorageDir: "/data/osu",
	}
	attrs := BeatmapAttributes(facts)
	assert.Equal(t, filepath.Join("files", "a", "ab", "ab12cd34"), attrs.FilePath)
	assert.Equal(t, "/data/osu", attrs.SongsDir)

	assert.Zero(t, BeatmapAttributes(nil))
	assert.Zero(t, BeatmapAttributes(&models.LazerFacts{Hash: "a"}))
	assert.Zero(t, BeatmapAttributes(&models.LazerFacts{StorageDir: "/data"}))
}
