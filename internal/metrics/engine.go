// Package metrics serves PP estimates for snapshots, caching completed
// spreads and coalescing concurrent requests for the same beatmap+mods key.
package metrics

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/nowplaybot/nowplay/errors"
	"github.com/nowplaybot/nowplay/internal/pp"
	"github.com/nowplaybot/nowplay/logging"
	"github.com/nowplaybot/nowplay/pkg/models"
	"github.com/nowplaybot/nowplay/pkg/profiling"
)

const (
	// cacheSize covers a map-select session: the current map plus the last
	// few the player flipped through.
	cacheSize = 8

	// unavailableTTL is how long a failed computation is remembered. Long
	// enough to absorb a chat burst, short enough to retry a transient
	// calculator failure.
	unavailableTTL = 10 * time.Second
)

type cacheEntry struct {
	est *models.PPEstimate
	at  time.Time
}

// Engine answers estimate requests against a calculator.
type Engine struct {
	log   *logrus.Entry
	calc  pp.Calculator
	cache *lru.Cache[string, cacheEntry]
	group singleflight.Group
	now   func() time.Time
}

// New creates an estimate engine around the given calculator.
func New(calc pp.Calculator) *Engine {
	cache, _ := lru.New[string, cacheEntry](cacheSize) // only errors on size <= 0
	return &Engine{
		log:   logging.NewLogger("metrics"),
		calc:  calc,
		cache: cache,
		now:   time.Now,
	}
}

// Estimate returns the PP spread for the snapshot's beatmap and mods.
// Concurrent calls for the same key share one computation. A failed
// computation yields an Unavailable estimate, not an error: the caller
// renders empty placeholders either way.
func (e *Engine) Estimate(ctx context.Context, gs *models.GameState) (*models.PPEstimate, error) {
	if gs == nil || gs.Beatmap == nil {
		return nil, errors.MetricUnsupported(0, "no beatmap loaded")
	}

	mods := gs.Mods.Normalized()
	key := estimateKey(gs.Beatmap.ID, mods)

	if est, ok := e.lookup(key); ok {
		return est, nil
	}

	v, err, _ := e.group.Do(key, func() (interface{}, error) {
		// A racing call may have filled the cache while we waited on the group.
		if est, ok := e.lookup(key); ok {
			return est, nil
		}

		defer profiling.Start("pp-spread").Stop()

		est := &models.PPEstimate{
			BeatmapID: gs.Beatmap.ID,
			Mods:      mods,
		}
		values, calcErr := e.calc.Spread(ctx, gs.Beatmap.Attributes, mods)
		if calcErr != nil {
			e.log.WithError(calcErr).WithField("beatmap", gs.Beatmap.ID).
				Warn("PP computation unavailable")
			est.Unavailable = true
		} else {
			est.Values = values
		}

		// The result is cached under its own key even if the current map
		// changed mid-computation; a revisit gets a warm hit.
		e.cache.Add(key, cacheEntry{est: est, at: e.now()})
		return est, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.PPEstimate), nil
}

func (e *Engine) lookup(key string) (*models.PPEstimate, bool) {
	entry, ok := e.cache.Get(key)
	if !ok {
		return nil, false
	}
	if entry.est.Unavailable && e.now().Sub(entry.at) > unavailableTTL {
		e.cache.Remove(key)
		return nil, false
	}
	return entry.est, true
}

func estimateKey(beatmapID int64, mods models.ModSet) string {
	return fmt.Sprintf("%d|%s", beatmapID, mods.Key())
}
