// Package unifier owns the adapter lifecycle: it probes for a running
// client, polls the attached adapter at a fixed interval, normalizes raw
// facts into canonical snapshots, and publishes them to the store when they
// change.
package unifier

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nowplaybot/nowplay/config"
	"github.com/nowplaybot/nowplay/internal/adapter"
	"github.com/nowplaybot/nowplay/internal/daemon/store"
	"github.com/nowplaybot/nowplay/logging"
	"github.com/nowplaybot/nowplay/pkg/models"
)

// Unifier is the collector driving the whole state side of the daemon.
type Unifier struct {
	log *logrus.Entry
	cfg *config.OsuConfig

	current adapter.Adapter
	source  string
	last    *models.GameState

	// now is swappable for tests.
	now func() time.Time
}

// New creates the unifier collector.
func New(cfg *config.OsuConfig) *Unifier {
	if cfg == nil {
		cfg = &config.OsuConfig{}
	}
	return &Unifier{
		log: logging.NewLogger("unifier"),
		cfg: cfg,
		now: time.Now,
	}
}

func (u *Unifier) Name() string { return "unifier" }

// Run polls until the context is canceled. One tick never overlaps the next:
// the poll in flight is bounded by the tick interval.
func (u *Unifier) Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error {
	interval := u.cfg.PollIntervalDuration()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer u.detach()

	u.setSource(ctx, updates, "Scanning...")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			u.tick(ctx, updates, interval)
		}
	}
}

func (u *Unifier) tick(ctx context.Context, updates chan<- store.Update, interval time.Duration) {
	pollCtx, cancel := context.WithTimeout(ctx, interval)
	defer cancel()

	if u.current == nil {
		u.probe(pollCtx, updates)
		if u.current == nil {
			return
		}
	}

	facts, err := u.current.Poll(pollCtx)
	switch {
	case err == nil:
		gs := Normalize(facts, u.now())
		if !gs.Same(u.last) {
			u.last = gs
			select {
			case updates <- store.Update{Type: store.UpdateGameState, Source: u.Name(), Payload: gs}:
			case <-ctx.Done():
			}
		}

	case adapter.IsNotRunning(err):
		u.log.WithField("adapter", u.current.Name()).Info("Client gone, re-probing")
		u.detach()
		u.setSource(ctx, updates, "Scanning...")
		// Previous snapshot deliberately stays published.

	case adapter.IsNotReady(err):
		u.log.WithError(err).Debug("Client not ready")

	case adapter.IsTornRead(err):
		// Raced a client-side write; this poll's data is garbage and the
		// next tick will retry. Not even log-worthy above debug.
		u.log.WithError(err).Debug("Discarded torn read")

	default:
		u.log.WithError(err).Debug("Poll aborted")
	}
}

// probe tries to attach an adapter according to the configured client mode.
// Stable is probed before lazer in auto mode.
func (u *Unifier) probe(ctx context.Context, updates chan<- store.Update) {
	a, source, err := probeOnce(ctx, u.cfg)
	if err != nil {
		u.log.WithError(err).Debug("No client found")
		return
	}
	u.attach(ctx, updates, a, source)
}

func (u *Unifier) attach(ctx context.Context, updates chan<- store.Update, a adapter.Adapter, source string) {
	u.current = a
	u.log.WithField("adapter", a.Name()).Info("Attached state source")
	u.setSource(ctx, updates, source)
}

func (u *Unifier) detach() {
	if u.current == nil {
		return
	}
	if err := u.current.Close(); err != nil {
		u.log.WithError(err).Debug("Adapter close failed")
	}
	u.current = nil
}

func (u *Unifier) setSource(ctx context.Context, updates chan<- store.Update, source string) {
	if source == u.source {
		return
	}
	u.source = source
	select {
	case updates <- store.Update{Type: store.UpdateSource, Source: u.Name(), Payload: source}:
	case <-ctx.Done():
	}
}
