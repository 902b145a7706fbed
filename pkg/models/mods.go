package models

import (
	"fmt"
	"sort"
	"strings"
)

// Mod is a single gameplay modifier with optional numeric parameters
// (e.g. speed_change for rate-altering mods on lazer).
type Mod struct {
	Acronym  string             `json:"acronym"`
	Settings map[string]float64 `json:"settings,omitempty"`
}

// ModSet is an unordered set of mods. Equality is set equality including
// per-mod parameters; the canonical key derived from it is used as a cache
// key component by the metrics engine.
type ModSet []Mod

// acronymOrder is the display order acronyms are listed in. Unknown
// acronyms sort after these, alphabetically.
var acronymOrder = []string{"EZ", "HD", "FL", "HR", "DT", "NC", "HT", "DC", "SD", "PF", "NF", "RX", "AP"}

var acronymRank = func() map[string]int {
	m := make(map[string]int, len(acronymOrder))
	for i, a := range acronymOrder {
		m[a] = i
	}
	return m
}()

// Stable client mod bitmask flags.
const (
	bitNoFail      uint32 = 1 << 0
	bitEasy        uint32 = 1 << 1
	bitTouchDevice uint32 = 1 << 2
	bitHidden      uint32 = 1 << 3
	bitHardRock    uint32 = 1 << 4
	bitSuddenDeath uint32 = 1 << 5
	bitDoubleTime  uint32 = 1 << 6
	bitRelax       uint32 = 1 << 7
	bitHalfTime    uint32 = 1 << 8
	bitNightcore   uint32 = 1 << 9
	bitFlashlight  uint32 = 1 << 10
	bitSpunOut     uint32 = 1 << 12
	bitAutopilot   uint32 = 1 << 13
	bitPerfect     uint32 = 1 << 14
)

var bitmaskAcronyms = []struct {
	flag    uint32
	acronym string
}{
	{bitEasy, "EZ"},
	{bitNoFail, "NF"},
	{bitHalfTime, "HT"},
	{bitHardRock, "HR"},
	{bitSuddenDeath, "SD"},
	{bitPerfect, "PF"},
	{bitDoubleTime, "DT"},
	{bitNightcore, "NC"},
	{bitHidden, "HD"},
	{bitFlashlight, "FL"},
	{bitRelax, "RX"},
	{bitAutopilot, "AP"},
	{bitSpunOut, "SO"},
	{bitTouchDevice, "TD"},
}

// ModsFromBitmask decodes a stable-client mod bitmask into a ModSet.
// NC subsumes DT and PF subsumes SD, matching how the client reports them.
func ModsFromBitmask(bits uint32) ModSet {
	if bits == 0 {
		return nil
	}
	var set ModSet
	for _, mc := range bitmaskAcronyms {
		if bits&mc.flag == 0 {
			continue
		}
		if mc.flag == bitDoubleTime && bits&bitNightcore != 0 {
			continue
		}
		if mc.flag == bitSuddenDeath && bits&bitPerfect != 0 {
			continue
		}
		set = append(set, Mod{Acronym: strings.ToUpper(mc.acronym)})
	}
	return set.Normalized()
}

// Bitmask encodes the set back into stable-client mod flags. Mods with no
// bitmask representation are ignored.
func (m ModSet) Bitmask() uint32 {
	var bits uint32
	for _, mod := range m {
		switch mod.Acronym {
		case "NF":
			bits |= bitNoFail
		case "EZ":
			bits |= bitEasy
		case "TD":
			bits |= bitTouchDevice
		case "HD":
			bits |= bitHidden
		case "HR":
			bits |= bitHardRock
		case "SD":
			bits |= bitSuddenDeath
		case "DT":
			bits |= bitDoubleTime
		case "RX":
			bits |= bitRelax
		case "HT":
			bits |= bitHalfTime
		case "NC":
			bits |= bitNightcore | bitDoubleTime
		case "FL":
			bits |= bitFlashlight
		case "SO":
			bits |= bitSpunOut
		case "AP":
			bits |= bitAutopilot
		case "PF":
			bits |= bitPerfect | bitSuddenDeath
		}
	}
	return bits
}

// Normalized returns a copy sorted into canonical acronym order with
// duplicate acronyms removed.
func (m ModSet) Normalized() ModSet {
	if len(m) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(m))
	out := make(ModSet, 0, len(m))
	for _, mod := range m {
		a := strings.ToUpper(strings.TrimSpace(mod.Acronym))
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, Mod{Acronym: a, Settings: mod.Settings})
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, iOK := acronymRank[out[i].Acronym]
		rj, jOK := acronymRank[out[j].Acronym]
		switch {
		case iOK && jOK:
			return ri < rj
		case iOK:
			return true
		case jOK:
			return false
		default:
			return out[i].Acronym < out[j].Acronym
		}
	})
	return out
}

// String joins the acronyms in canonical order, e.g. "HD,DT".
// An empty set renders as "".
func (m ModSet) String() string {
	n := m.Normalized()
	if len(n) == 0 {
		return ""
	}
	acronyms := make([]string, len(n))
	for i, mod := range n {
		acronyms[i] = mod.Acronym
	}
	return strings.Join(acronyms, ",")
}

// Key returns a deterministic cache-key fragment that includes per-mod
// parameters, so DT and DT(speed_change=1.4) never collide.
func (m ModSet) Key() string {
	n := m.Normalized()
	if len(n) == 0 {
		return "nomod"
	}
	parts := make([]string, 0, len(n))
	for _, mod := range n {
		if len(mod.Settings) == 0 {
			parts = append(parts, mod.Acronym)
			continue
		}
		keys := make([]string, 0, len(mod.Settings))
		for k := range mod.Settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		kv := make([]string, len(keys))
		for i, k := range keys {
			kv[i] = fmt.Sprintf("%s=%g", k, mod.Settings[k])
		}
		parts = append(parts, mod.Acronym+"("+strings.Join(kv, ",")+")")
	}
	return strings.Join(parts, ",")
}

// Equal reports set equality including parameters.
func (m ModSet) Equal(other ModSet) bool {
	return m.Key() == other.Key()
}

// ClockRate returns the effective playback rate implied by the set:
// an explicit speed_change parameter wins, otherwise DT/NC mean 1.5x
// and HT/DC mean 0.75x.
func (m ModSet) ClockRate() float64 {
	rate := 1.0
	for _, mod := range m {
		if v, ok := mod.Settings["speed_change"]; ok && v > 0 {
			return v
		}
		switch mod.Acronym {
		case "DT", "NC":
			rate = 1.5
		case "HT", "DC":
			rate = 0.75
		}
	}
	return rate
}
