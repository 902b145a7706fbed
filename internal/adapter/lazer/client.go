// Package lazer reads game state from the lazer companion's local websocket
// API. The companion pushes a full state frame on connect and again whenever
// something changes; between frames the last received state stands.
package lazer

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/nowplaybot/nowplay/errors"
	"github.com/nowplaybot/nowplay/logging"
	"github.com/nowplaybot/nowplay/pkg/models"
)

const (
	dialTimeout = 2 * time.Second
	// drainDeadline bounds how long a poll waits for a fresh frame before
	// falling back to the cached state.
	drainDeadline = 50 * time.Millisecond
)

// stateFrame is the companion's push payload.
type stateFrame struct {
	Type    string `json:"type"`
	Beatmap *struct {
		ID         int64  `json:"id"`
		Artist     string `json:"artist"`
		Title      string `json:"title"`
		Difficulty string `json:"difficulty"`
		Creator    string `json:"creator"`
		Ranked     string `json:"ranked"`
		Hash       string `json:"hash"`
	} `json:"beatmap"`
	Activity string `json:"activity"`
	Mods     []struct {
		Acronym  string             `json:"acronym"`
		Settings map[string]float64 `json:"settings"`
	} `json:"mods"`
	Storage string `json:"storage"`
}

// Adapter is the lazer-client state source.
type Adapter struct {
	log *logrus.Entry
	url string

	conn *websocket.Conn
	last *models.LazerFacts
}

// Dial connects to the companion endpoint. A refused or timed out dial means
// no lazer client (with companion) is running.
func Dial(ctx context.Context, url string) (*Adapter, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: dialTimeout,
		NetDialContext: (&net.Dialer{
			Timeout: dialTimeout,
		}).DialContext,
	}

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.NotRunning("lazer")
	}

	return &Adapter{
		log:  logging.NewLogger("adapter.lazer").WithField("url", url),
		url:  url,
		conn: conn,
	}, nil
}

func (a *Adapter) Name() string { return "lazer" }

func (a *Adapter) Close() error {
	if a.conn == nil {
		return nil
	}
	err := a.conn.Close()
	a.conn = nil
	return err
}

// Poll drains any frames the companion pushed since the last tick and
// returns the newest state. With no new frame the previous state is
// returned again; with no frame ever received yet the companion is still
// warming up.
func (a *Adapter) Poll(ctx context.Context) (*models.RawStateFacts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.conn == nil {
		return nil, errors.NotRunning("lazer")
	}

	deadline := time.Now().Add(drainDeadline)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	for {
		if err := a.conn.SetReadDeadline(deadline); err != nil {
			return nil, a.disconnect(err)
		}
		_, payload, err := a.conn.ReadMessage()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				break // no new frame this tick
			}
			return nil, a.disconnect(err)
		}

		facts, err := decodeFrame(payload)
		if err != nil {
			return nil, err
		}
		if facts != nil {
			a.last = facts
		}
	}

	if a.last == nil {
		return nil, errors.NotReady("lazer", "no state frame received yet")
	}

	cp := *a.last
	cp.Mods = append([]models.Mod(nil), a.last.Mods...)
	return &models.RawStateFacts{
		Client: models.ClientLazer,
		Lazer:  &cp,
	}, nil
}

// decodeFrame maps a push payload onto LazerFacts. Non-state frames decode
// to nil; malformed payloads are treated as torn.
func decodeFrame(payload []byte) (*models.LazerFacts, error) {
	var frame stateFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return nil, errors.TornRead("malformed companion frame: " + err.Error())
	}
	if frame.Type != "" && frame.Type != "state" {
		return nil, nil
	}
	if frame.Activity == "" {
		return nil, errors.TornRead("companion frame missing activity")
	}

	facts := &models.LazerFacts{
		Activity:   frame.Activity,
		StorageDir: frame.Storage,
	}
	if frame.Beatmap != nil {
		if frame.Beatmap.ID < 0 {
			return nil, errors.TornRead("companion frame carries negative beatmap id")
		}
		facts.BeatmapLoaded = true
		facts.BeatmapID = frame.Beatmap.ID
		facts.Artist = frame.Beatmap.Artist
		facts.Title = frame.Beatmap.Title
		facts.Difficulty = frame.Beatmap.Difficulty
		facts.Creator = frame.Beatmap.Creator
		facts.RankedName = frame.Beatmap.Ranked
		facts.Hash = frame.Beatmap.Hash
	}
	for _, m := range frame.Mods {
		if m.Acronym == "" {
			return nil, errors.TornRead("companion frame carries unnamed mod")
		}
		facts.Mods = append(facts.Mods, models.Mod{
			Acronym:  m.Acronym,
			Settings: m.Settings,
		})
	}
	return facts, nil
}

func (a *Adapter) disconnect(err error) error {
	a.log.WithError(err).Debug("Companion connection lost")
	a.Close()
	return errors.NotRunning("lazer")
}

// BeatmapAttributes locates the hash-sharded .osu file inside the lazer
// file store, relative to the storage directory.
func BeatmapAttributes(facts *models.LazerFacts) models.DifficultyAttributes {
	if facts == nil || facts.StorageDir == "" || len(facts.Hash) < 2 {
		return models.DifficultyAttributes{}
	}
	return models.DifficultyAttributes{
		FilePath: filepath.Join("files", facts.Hash[:1], facts.Hash[:2], facts.Hash),
		SongsDir: facts.StorageDir,
	}
}
