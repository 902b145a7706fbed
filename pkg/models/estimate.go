package models

// Breakpoints are the fixed accuracy thresholds PP estimates are computed at.
var Breakpoints = []int{95, 97, 98, 99, 100}

// PPEstimate holds performance-point values for one (beatmap, mods) pair at
// the fixed accuracy breakpoints. When the computation collaborator cannot
// produce values, Unavailable is set and Values is empty; rendering surfaces
// that as empty placeholders, never as 0.
type PPEstimate struct {
	BeatmapID   int64           `json:"beatmap_id"`
	Mods        ModSet          `json:"mods,omitempty"`
	Values      map[int]float64 `json:"values,omitempty"`
	Unavailable bool            `json:"unavailable,omitempty"`
}

// At returns the value at an accuracy breakpoint, and whether one exists.
func (e *PPEstimate) At(accuracy int) (float64, bool) {
	if e == nil || e.Unavailable {
		return 0, false
	}
	v, ok := e.Values[accuracy]
	return v, ok
}
