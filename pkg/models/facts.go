package models

// RawStateFacts is the tagged-variant output of a state source adapter,
// before normalization into a GameState. Exactly one of Stable or Lazer is
// set, matching Client.
type RawStateFacts struct {
	Client ClientKind
	Stable *StableFacts
	Lazer  *LazerFacts
}

// StableFacts are the raw values read out of the stable client's memory.
// Integer codes are the client's own encodings; the unifier maps them.
type StableFacts struct {
	BeatmapLoaded bool
	BeatmapID     int64
	Artist        string
	Title         string
	Difficulty    string
	Creator       string
	RankedCode    int32
	ActivityCode  int32
	// ModsBits is only meaningful when ModsRead is true; mods are only
	// resolvable from memory while a play is active.
	ModsRead bool
	ModsBits uint32
	Folder   string
	File     string
	SongsDir string
}

// LazerFacts are the fields received from the lazer companion API.
type LazerFacts struct {
	BeatmapLoaded bool
	BeatmapID     int64
	Artist        string
	Title         string
	Difficulty    string
	Creator       string
	RankedName    string
	Activity      string
	Mods          []Mod
	// Hash shards the .osu file inside the lazer file store
	// (<storage>/files/<h[0]>/<h[0:2]>/<h>).
	Hash       string
	StorageDir string
}
