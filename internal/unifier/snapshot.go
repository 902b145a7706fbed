package unifier

import (
	"context"
	"fmt"
	"time"

	"github.com/nowplaybot/nowplay/config"
	"github.com/nowplaybot/nowplay/errors"
	"github.com/nowplaybot/nowplay/internal/adapter"
	"github.com/nowplaybot/nowplay/internal/adapter/lazer"
	"github.com/nowplaybot/nowplay/internal/adapter/stable"
	"github.com/nowplaybot/nowplay/pkg/models"
	"github.com/nowplaybot/nowplay/pkg/process"
	"github.com/nowplaybot/nowplay/pkg/profiling"
)

// snapshotAttempts bounds the one-shot retry loop for transient poll
// failures (client still loading, torn reads).
const snapshotAttempts = 5

// Snapshot performs a one-shot probe and poll without a running daemon. It
// returns the normalized snapshot and a human-readable source label.
func Snapshot(ctx context.Context, cfg *config.OsuConfig) (*models.GameState, string, error) {
	defer profiling.Start("snapshot").Stop()

	if cfg == nil {
		cfg = &config.OsuConfig{}
	}

	a, source, err := probeOnce(ctx, cfg)
	if err != nil {
		return nil, "", err
	}
	defer a.Close()

	for attempt := 0; attempt < snapshotAttempts; attempt++ {
		facts, err := a.Poll(ctx)
		if err == nil {
			return Normalize(facts, time.Now()), source, nil
		}
		if !adapter.IsNotReady(err) && !adapter.IsTornRead(err) {
			return nil, "", err
		}
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil, "", errors.NotReady(a.Name(), "no stable read after retries")
}

func probeOnce(ctx context.Context, cfg *config.OsuConfig) (adapter.Adapter, string, error) {
	mode := cfg.Client
	if mode == "" {
		mode = "auto"
	}

	if mode == "auto" || mode == "stable" {
		if proc, err := process.FindStable(); err == nil && proc != nil {
			a, err := stable.Attach(proc, cfg.SongsDir)
			if err == nil {
				return a, fmt.Sprintf("Stable (pid %d)", proc.PID), nil
			}
		}
	}

	if mode == "auto" || mode == "lazer" {
		url := cfg.CompanionURL
		if url == "" {
			url = config.DefaultCompanionURL
		}
		a, err := lazer.Dial(ctx, url)
		if err == nil {
			proc, _ := process.FindLazer()
			return a, lazerSourceLabel(proc), nil
		}
	}

	return nil, "", errors.NotRunning("osu")
}

// lazerSourceLabel names the lazer source with its pid when the client
// process is visible on this machine; the companion may also be reached
// over the network.
func lazerSourceLabel(proc *process.OsuProcess) string {
	if proc != nil {
		return fmt.Sprintf("Lazer (pid %d)", proc.PID)
	}
	return "Lazer (companion)"
}
