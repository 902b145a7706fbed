// Package stable reads game state out of a running stable client's memory
// through /proc/<pid>/mem. Anchors into the client's jitted code are found by
// signature scan once per attachment; every poll walks pointer chains from
// those anchors. Reads race the client, so every decoded value is gated for
// plausibility before it leaves this package.
package stable

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/nowplaybot/nowplay/errors"
	"github.com/nowplaybot/nowplay/logging"
	"github.com/nowplaybot/nowplay/pkg/models"
	"github.com/nowplaybot/nowplay/pkg/process"
)

const (
	maxActivityCode = 7
	maxRankedCode   = 7
	activityPlaying = 2
)

// Adapter is the stable-client state source.
type Adapter struct {
	log      *logrus.Entry
	pid      int
	mem      *memory
	offsets  *offsetTable
	songsDir string

	// anchor addresses, resolved lazily; zero means not yet found
	baseAnchor    uint64
	statusAnchor  uint64
	rulesetAnchor uint64
}

// Attach opens the process's memory. songsDirOverride, when non-empty, wins
// over the directory derived from the process command line.
func Attach(proc *process.OsuProcess, songsDirOverride string) (*Adapter, error) {
	mem, err := openMemory(proc.PID)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotRunning("stable")
		}
		if os.IsPermission(err) {
			return nil, errors.NotReady("stable", "no permission to read process memory (ptrace scope?)")
		}
		return nil, errors.Wrap(err, errors.ErrCodeNotRunning, "failed to open process memory").
			WithDetail("pid", fmt.Sprintf("%d", proc.PID))
	}

	offsets, err := loadOffsets()
	if err != nil {
		mem.Close()
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "invalid embedded offset table")
	}

	songsDir := songsDirOverride
	if songsDir == "" {
		songsDir = proc.SongsDir()
	}

	return &Adapter{
		log:      logging.NewLogger("adapter.stable").WithField("pid", proc.PID),
		pid:      proc.PID,
		mem:      mem,
		offsets:  offsets,
		songsDir: songsDir,
	}, nil
}

func (a *Adapter) Name() string { return "stable" }

func (a *Adapter) Close() error {
	if a.mem == nil {
		return nil
	}
	err := a.mem.Close()
	a.mem = nil
	return err
}

// Poll reads one consistent-enough view of the client's state.
func (a *Adapter) Poll(ctx context.Context) (*models.RawStateFacts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !process.IsProcessAlive(a.pid) {
		return nil, errors.NotRunning("stable")
	}
	if err := a.resolveAnchors(); err != nil {
		return nil, err
	}

	facts := &models.StableFacts{SongsDir: a.songsDir}

	beatmapPtr, err := a.beatmapPtr()
	if err != nil {
		return nil, a.classify(err)
	}
	if beatmapPtr != 0 {
		if err := a.readBeatmap(beatmapPtr, facts); err != nil {
			return nil, a.classify(err)
		}
		facts.BeatmapLoaded = true
	}

	activity, err := a.readActivity()
	if err != nil {
		return nil, a.classify(err)
	}
	if activity < 0 || activity > maxActivityCode {
		return nil, errors.TornRead(fmt.Sprintf("activity code %d out of range", activity))
	}
	facts.ActivityCode = activity

	// Mods only exist while a play is active; the score object is dead
	// memory otherwise.
	if activity == activityPlaying {
		bits, err := a.readMods()
		if err == nil {
			facts.ModsRead = true
			facts.ModsBits = bits
		} else {
			a.log.WithError(err).Debug("Mods unreadable this tick")
		}
	}

	return &models.RawStateFacts{
		Client: models.ClientStable,
		Stable: facts,
	}, nil
}

// resolveAnchors signature-scans for the three code anchors. A client that is
// still starting up hasn't jitted them yet, which is NOT_READY, not an error.
func (a *Adapter) resolveAnchors() error {
	type anchor struct {
		name string
		sig  string
		dst  *uint64
	}
	anchors := []anchor{
		{"base", a.offsets.Signatures.Base, &a.baseAnchor},
		{"status", a.offsets.Signatures.Status, &a.statusAnchor},
		{"ruleset", a.offsets.Signatures.Ruleset, &a.rulesetAnchor},
	}

	for _, an := range anchors {
		if *an.dst != 0 {
			continue
		}
		sig, err := parseSignature(an.sig)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "invalid signature in offset table").
				WithDetail("anchor", an.name)
		}
		addr, found, err := a.mem.Scan(sig)
		if err != nil {
			return a.classify(err)
		}
		if !found {
			return errors.NotReady("stable", fmt.Sprintf("%s anchor not in memory yet", an.name))
		}
		a.log.WithFields(logrus.Fields{"anchor": an.name, "addr": fmt.Sprintf("%#x", addr)}).
			Debug("Resolved memory anchor")
		*an.dst = addr
	}
	return nil
}

func (a *Adapter) beatmapPtr() (uint64, error) {
	slot := uint64(int64(a.baseAnchor) + a.offsets.Beatmap.PtrOffset)
	outer, err := a.mem.ReadPtr(slot)
	if err != nil {
		return 0, err
	}
	if outer == 0 {
		return 0, nil
	}
	return a.mem.ReadPtr(outer)
}

func (a *Adapter) readBeatmap(ptr uint64, facts *models.StableFacts) error {
	off := a.offsets.Beatmap

	id, err := a.mem.ReadI32(ptr + off.ID)
	if err != nil {
		return err
	}
	if id < 0 {
		return errors.TornRead(fmt.Sprintf("negative beatmap id %d", id))
	}
	facts.BeatmapID = int64(id)

	fields := []struct {
		offset uint64
		dst    *string
	}{
		{off.Artist, &facts.Artist},
		{off.Title, &facts.Title},
		{off.Difficulty, &facts.Difficulty},
		{off.Creator, &facts.Creator},
		{off.Folder, &facts.Folder},
		{off.File, &facts.File},
	}
	for _, s := range fields {
		strPtr, err := a.mem.ReadPtr(ptr + s.offset)
		if err != nil {
			return err
		}
		v, err := a.mem.ReadNetString(strPtr)
		if err != nil {
			return err
		}
		*s.dst = v
	}

	ranked, err := a.mem.ReadI32(ptr + off.Ranked)
	if err != nil {
		return err
	}
	if ranked < 0 || ranked > maxRankedCode {
		return errors.TornRead(fmt.Sprintf("ranked code %d out of range", ranked))
	}
	facts.RankedCode = ranked

	return nil
}

func (a *Adapter) readActivity() (int32, error) {
	slot := uint64(int64(a.statusAnchor) + a.offsets.Status.PtrOffset)
	ptr, err := a.mem.ReadPtr(slot)
	if err != nil {
		return 0, err
	}
	if ptr == 0 {
		return 0, errors.TornRead("status pointer is nil")
	}
	return a.mem.ReadI32(ptr)
}

// readMods walks ruleset -> gameplay -> score -> mods and decodes the
// client's XOR-obfuscated pair.
func (a *Adapter) readMods() (uint32, error) {
	off := a.offsets.Mods

	rulesetPtr, err := a.mem.ReadPtr(a.rulesetAnchor - off.RulesetPtr)
	if err != nil {
		return 0, err
	}
	ruleset, err := a.mem.ReadPtr(rulesetPtr)
	if err != nil {
		return 0, err
	}
	gameplay, err := a.mem.ReadPtr(ruleset + off.GameplayPtr)
	if err != nil {
		return 0, err
	}
	score, err := a.mem.ReadPtr(gameplay + off.ScorePtr)
	if err != nil {
		return 0, err
	}
	modsObj, err := a.mem.ReadPtr(score + off.Mods)
	if err != nil {
		return 0, err
	}
	if modsObj == 0 {
		return 0, errors.TornRead("mods object is nil")
	}
	value, err := a.mem.ReadU32(modsObj + off.Value)
	if err != nil {
		return 0, err
	}
	mask, err := a.mem.ReadU32(modsObj + off.Mask)
	if err != nil {
		return 0, err
	}
	return value ^ mask, nil
}

// BeatmapAttributes locates the on-disk .osu file for the given facts,
// relative to the stable Songs directory. The performance calculator joins
// the two to shell out against the file.
func BeatmapAttributes(facts *models.StableFacts) models.DifficultyAttributes {
	if facts == nil || facts.Folder == "" || facts.File == "" {
		return models.DifficultyAttributes{}
	}
	return models.DifficultyAttributes{
		FilePath: filepath.Join(facts.Folder, facts.File),
		SongsDir: facts.SongsDir,
	}
}

// classify maps raw read errors onto the adapter taxonomy. A vanished mem
// file means the process died; any other short or failing read is a race
// against the client and is discarded as torn.
func (a *Adapter) classify(err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*errors.Error); ok {
		return e
	}
	if os.IsNotExist(err) || !process.IsProcessAlive(a.pid) {
		return errors.NotRunning("stable")
	}
	return errors.TornRead(err.Error())
}
