package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModsFromBitmask(t *testing.T) {
	tests := []struct {
		name string
		bits uint32
		want string
	}{
		{"nomod", 0, ""},
		{"hidden", 1 << 3, "HD"},
		{"hidden doubletime", (1 << 3) | (1 << 6), "HD,DT"},
		{"nightcore subsumes doubletime", (1 << 6) | (1 << 9), "NC"},
		{"perfect subsumes suddendeath", (1 << 5) | (1 << 14), "PF"},
		{"easy nofail halftime", (1 << 1) | (1 << 0) | (1 << 8), "EZ,HT,NF"},
		{"hardrock flashlight", (1 << 4) | (1 << 10), "FL,HR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ModsFromBitmask(tt.bits).String())
		})
	}
}

func TestModSetBitmaskRoundTrip(t *testing.T) {
	tests := []uint32{
		0,
		1 << 3,
		(1 << 3) | (1 << 6),
		(1 << 1) | (1 << 0),
		(1 << 4) | (1 << 10) | (1 << 3),
	}

	for _, bits := range tests {
		set := ModsFromBitmask(bits)
		assert.Equal(t, bits, set.Bitmask(), "bits %#x", bits)
	}

	// NC and PF expand to include their subsumed flags on encode.
	nc := ModSet{{Acronym: "NC"}}
	assert.Equal(t, uint32((1<<9)|(1<<6)), nc.Bitmask())
	pf := ModSet{{Acronym: "PF"}}
	assert.Equal(t, uint32((1<<14)|(1<<5)), pf.Bitmask())
}

func TestModSetNormalized(t *testing.T) {
	set := ModSet{
		{Acronym: "dt"},
		{Acronym: " hd "},
		{Acronym: "DT"},
		{Acronym: ""},
	}

	n := set.Normalized()
	assert.Equal(t, "HD,DT", n.String())
	assert.Len(t, n, 2)

	// Unknown acronyms sort after the known display order.
	mixed := ModSet{{Acronym: "WU"}, {Acronym: "HD"}, {Acronym: "AC"}}
	assert.Equal(t, "HD,AC,WU", mixed.String())

	assert.Nil(t, ModSet{}.Normalized())
}

func TestModSetKey(t *testing.T) {
	assert.Equal(t, "nomod", ModSet(nil).Key())
	assert.Equal(t, "HD,DT", ModSet{{Acronym: "DT"}, {Acronym: "HD"}}.Key())

	// Parameterized mods never collide with their plain form.
	rate := ModSet{{Acronym: "DT", Settings: map[string]float64{"speed_change": 1.4}}}
	assert.Equal(t, "DT(speed_change=1.4)", rate.Key())
	assert.NotEqual(t, ModSet{{Acronym: "DT"}}.Key(), rate.Key())
}

func TestModSetEqual(t *testing.T) {
	a := ModSet{{Acronym: "HD"}, {Acronym: "DT"}}
	b := ModSet{{Acronym: "DT"}, {Acronym: "HD"}}
	assert.True(t, a.Equal(b))
	assert.True(t, ModSet(nil).Equal(ModSet{}))
	assert.False(t, a.Equal(ModSet{{Acronym: "HD"}}))
}

func TestModSetClockRate(t *testing.T) {
	assert.Equal(t, 1.0, ModSet(nil).ClockRate())
	assert.Equal(t, 1.5, ModSet{{Acronym: "DT"}}.ClockRate())
	assert.Equal(t, 1.5, ModSet{{Acronym: "NC"}}.ClockRate())
	assert.Equal(t, 0.75, ModSet{{Acronym: "HT"}}.ClockRate())

	custom := ModSet{{Acronym: "DT", Settings: map[string]float64{"speed_change": 1.2}}}
	assert.Equal(t, 1.2, custom.ClockRate())
}
