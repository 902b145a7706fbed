package metrics

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/nowplaybot/nowplay/internal/daemon/store"
	"github.com/nowplaybot/nowplay/logging"
	"github.com/nowplaybot/nowplay/pkg/models"
)

// Warmer is a collector that pre-computes the estimate for every newly
// published snapshot, so the first chat request for a map usually hits a
// warm cache.
type Warmer struct {
	log    *logrus.Entry
	engine *Engine
}

// NewWarmer creates a cache warmer for the given engine.
func NewWarmer(engine *Engine) *Warmer {
	return &Warmer{
		log:    logging.NewLogger("metrics.warmer"),
		engine: engine,
	}
}

func (w *Warmer) Name() string { return "metrics.warmer" }

// Run subscribes to store updates and warms the cache on snapshot changes.
// It never writes updates of its own.
func (w *Warmer) Run(ctx context.Context, st *store.Store, _ chan<- store.Update) error {
	ch := st.Subscribe()
	defer st.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-ch:
			if !ok {
				return nil
			}
			if u.Type != store.UpdateGameState {
				continue
			}
			gs, ok := u.Payload.(*models.GameState)
			if !ok || gs == nil || gs.Beatmap == nil {
				continue
			}
			if _, err := w.engine.Estimate(ctx, gs); err != nil {
				w.log.WithError(err).Debug("Warm-up estimate skipped")
			}
		}
	}
}
