package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleState() *GameState {
	return &GameState{
		Client: ClientStable,
		Beatmap: &Beatmap{
			ID:             42,
			Artist:         "Artist",
			Title:          "Title",
			DifficultyName: "Hard",
			Creator:        "Mapper",
			Status:         StatusRanked,
		},
		Mods:   ModSet{{Acronym: "HD"}},
		Status: ActivityListening,
		AsOf:   time.Now(),
	}
}

func TestGameStateSame(t *testing.T) {
	t.Run("identical ignoring timestamp", func(t *testing.T) {
		a := sampleState()
		b := sampleState()
		b.AsOf = b.AsOf.Add(time.Minute)
		assert.True(t, a.Same(b))
	})

	t.Run("different beatmap", func(t *testing.T) {
		a := sampleState()
		b := sampleState()
		b.Beatmap.ID = 43
		assert.False(t, a.Same(b))
	})

	t.Run("different mods", func(t *testing.T) {
		a := sampleState()
		b := sampleState()
		b.Mods = ModSet{{Acronym: "HD"}, {Acronym: "DT"}}
		assert.False(t, a.Same(b))
	})

	t.Run("different activity", func(t *testing.T) {
		a := sampleState()
		b := sampleState()
		b.Status = ActivityPlaying
		assert.False(t, a.Same(b))
	})

	t.Run("mods read versus not read", func(t *testing.T) {
		a := sampleState()
		a.Mods = nil
		a.ModsKnown = true
		b := sampleState()
		b.Mods = nil
		assert.False(t, a.Same(b))
	})

	t.Run("nil beatmap on one side", func(t *testing.T) {
		a := sampleState()
		b := sampleState()
		b.Beatmap = nil
		assert.False(t, a.Same(b))
	})

	t.Run("both without beatmap", func(t *testing.T) {
		a := sampleState()
		a.Beatmap = nil
		b := sampleState()
		b.Beatmap = nil
		assert.True(t, a.Same(b))
	})

	t.Run("nil receivers", func(t *testing.T) {
		var a *GameState
		assert.True(t, a.Same(nil))
		assert.False(t, a.Same(sampleState()))
		assert.False(t, sampleState().Same(nil))
	})
}

func TestBeatmapLink(t *testing.T) {
	b := &Beatmap{ID: 123456}
	assert.Equal(t, "https://osu.ppy.sh/b/123456", b.Link())

	unsubmitted := &Beatmap{ID: -1}
	assert.Equal(t, "", unsubmitted.Link())
	assert.Equal(t, "", (*Beatmap)(nil).Link())
}

func TestDifficultyAttributesResolvable(t *testing.T) {
	assert.True(t, DifficultyAttributes{FilePath: "a.osu", SongsDir: "/songs"}.Resolvable())
	assert.False(t, DifficultyAttributes{FilePath: "a.osu"}.Resolvable())
	assert.False(t, DifficultyAttributes{}.Resolvable())
}

func TestPPEstimateAt(t *testing.T) {
	est := &PPEstimate{Values: map[int]float64{98: 384}}

	v, ok := est.At(98)
	assert.True(t, ok)
	assert.Equal(t, 384.0, v)

	_, ok = est.At(99)
	assert.False(t, ok)

	_, ok = (&PPEstimate{Unavailable: true, Values: map[int]float64{98: 1}}).At(98)
	assert.False(t, ok)

	_, ok = (*PPEstimate)(nil).At(98)
	assert.False(t, ok)
}
