package models

import "fmt"

// RankedStatus is the moderation status of a beatmap.
type RankedStatus string

const (
	StatusUnknown            RankedStatus = "Unknown"
	StatusNotSubmitted       RankedStatus = "Local/Not Submitted"
	StatusWIP                RankedStatus = "WIP"
	StatusPending            RankedStatus = "Pending"
	StatusRanked             RankedStatus = "Ranked"
	StatusApproved           RankedStatus = "Approved"
	StatusQualified          RankedStatus = "Qualified"
	StatusLoved              RankedStatus = "Loved"
	StatusGraveyard          RankedStatus = "Graveyard"
	StatusPendingOrGraveyard RankedStatus = "Pending/Graveyard"
)

// DifficultyAttributes locates the difficulty data the PP collaborator needs.
// It is opaque to every consumer except the pp package.
type DifficultyAttributes struct {
	// FilePath is the .osu file path relative to SongsDir.
	FilePath string `json:"file_path,omitempty"`
	// SongsDir is the client's song/file storage root.
	SongsDir string `json:"songs_dir,omitempty"`
}

// Resolvable reports whether the attributes point at an actual local file.
func (d DifficultyAttributes) Resolvable() bool {
	return d.FilePath != "" && d.SongsDir != ""
}

// Beatmap is one playable song+difficulty unit. Identity is ID. A beatmap
// value is immutable once constructed from a read; selecting a different map
// in the client produces a new instance.
type Beatmap struct {
	ID             int64                `json:"id"`
	Artist         string               `json:"artist"`
	Title          string               `json:"title"`
	DifficultyName string               `json:"difficulty_name"`
	Creator        string               `json:"creator"`
	Status         RankedStatus         `json:"status"`
	Attributes     DifficultyAttributes `json:"attributes,omitempty"`
}

// Link returns the public beatmap URL, or "" for unsubmitted maps.
func (b *Beatmap) Link() string {
	if b == nil || b.ID <= 0 {
		return ""
	}
	return fmt.Sprintf("https://osu.ppy.sh/b/%d", b.ID)
}
