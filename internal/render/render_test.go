package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nowplaybot/nowplay/pkg/models"
	"github.com/nowplaybot/nowplay/testutil"
)

func TestRenderFullState(t *testing.T) {
	ctx := NewContext(testutil.GameState(), nil)

	got := Render("{artist} - {title} [{diff}] ({creator}) {mods} | {status} {link}", ctx)
	assert.Equal(t, "Camellia - Exit This Earth's Atmosphere [Escape] (Asahina Momoko) HD,DT | Ranked https://osu.ppy.sh/b/123456", got)
}

func TestRenderWithEstimate(t *testing.T) {
	ctx := NewContext(testutil.GameState(), testutil.Estimate())

	got := Render("{pp_95}pp {pp_98}pp {pp_100}pp", ctx)
	assert.Equal(t, "312pp 384pp 478pp", got)
}

func TestRenderUnavailableEstimate(t *testing.T) {
	est := &models.PPEstimate{Unavailable: true, Values: map[int]float64{98: 1}}
	ctx := NewContext(testutil.GameState(), est)

	// Unavailable estimates surface as empty placeholders, never as zeros.
	got := Render("pp: {pp_98}", ctx)
	assert.Equal(t, "pp:", got)
}

func TestRenderNoBeatmap(t *testing.T) {
	gs := testutil.GameState()
	gs.Beatmap = nil
	gs.Mods = nil
	ctx := NewContext(gs, nil)

	got := Render("{artist} - {title} [{diff}] {mods} {link}", ctx)
	assert.Equal(t, "- []", got)
}

func TestRenderNoMod(t *testing.T) {
	gs := testutil.GameState()
	gs.Mods = nil
	gs.ModsKnown = true
	assert.Equal(t, "NoMod", Render("{mods}", NewContext(gs, nil)))

	gs.ModsKnown = false
	assert.Equal(t, "", Render("{mods}", NewContext(gs, nil)))
}

func TestRenderNilState(t *testing.T) {
	ctx := NewContext(nil, nil)
	assert.Equal(t, "np:", Render("np: {artist} {title}", ctx))
}

func TestRenderUnknownTokenPassesThrough(t *testing.T) {
	ctx := NewContext(testutil.GameState(), nil)

	got := Render("{artist} {bogus} {weather}", ctx)
	assert.Equal(t, "Camellia {bogus} {weather}", got)
}

func TestRenderCollapsesWhitespace(t *testing.T) {
	gs := testutil.GameState()
	gs.Mods = nil
	ctx := NewContext(gs, nil)

	got := Render("  {artist}   {mods}   {title}  ", ctx)
	assert.Equal(t, "Camellia Exit This Earth's Atmosphere", got)
}

func TestContextLookup(t *testing.T) {
	ctx := NewContext(testutil.GameState(), nil)

	v, ok := ctx.Lookup("id")
	assert.True(t, ok)
	assert.Equal(t, "123456", v)

	_, ok = ctx.Lookup("bogus")
	assert.False(t, ok)
}
