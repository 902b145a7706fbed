// Package dispatch matches inbound chat messages against configured command
// triggers and emits rendered responses through the chat transport.
package dispatch

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nowplaybot/nowplay/config"
	"github.com/nowplaybot/nowplay/internal/render"
	"github.com/nowplaybot/nowplay/logging"
	"github.com/nowplaybot/nowplay/pkg/models"
)

// Transport delivers an outbound response. The original event rides along so
// the transport can thread the reply.
type Transport interface {
	Send(ctx context.Context, ev models.ChatEvent, text string) error
}

// SnapshotSource yields the latest published snapshot. The daemon store
// satisfies this.
type SnapshotSource interface {
	Current() *models.GameState
}

// Estimator produces the PP estimate for a snapshot. The metrics engine
// satisfies this.
type Estimator interface {
	Estimate(ctx context.Context, gs *models.GameState) (*models.PPEstimate, error)
}

// Dispatcher routes chat events to commands. The command set is swappable at
// runtime for config hot reload.
type Dispatcher struct {
	log       *logrus.Entry
	snapshots SnapshotSource
	metrics   Estimator
	transport Transport
	limiter   *keyedLimiter

	mu       sync.RWMutex
	commands []config.CommandSpec

	now func() time.Time
}

// New creates a dispatcher. cooldown is the minimum interval between
// responses per sender.
func New(commands []config.CommandSpec, snapshots SnapshotSource, metrics Estimator, transport Transport, cooldown time.Duration) *Dispatcher {
	var limiter *keyedLimiter
	if cooldown > 0 {
		limiter = newKeyedLimiter(1/cooldown.Seconds(), 1, 0)
	}
	return &Dispatcher{
		log:       logging.NewLogger("dispatch"),
		snapshots: snapshots,
		metrics:   metrics,
		transport: transport,
		limiter:   limiter,
		commands:  commands,
		now:       time.Now,
	}
}

// SetTransport installs the outbound transport. The dispatcher and transport
// reference each other, so one side has to be wired after construction.
func (d *Dispatcher) SetTransport(t Transport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transport = t
}

// SetCommands atomically replaces the command set (config hot reload path).
func (d *Dispatcher) SetCommands(commands []config.CommandSpec) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = commands
}

// Handle processes one inbound chat event. It never returns an error: every
// failure mode here is log-and-drop, a late response being worse than a
// dropped one.
func (d *Dispatcher) Handle(ctx context.Context, ev models.ChatEvent) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}

	cmd := d.match(text)
	if cmd == nil {
		return
	}

	if !d.limiter.Allow(ev.Sender, d.now()) {
		d.log.WithFields(logrus.Fields{"sender": ev.Sender, "command": cmd.Name}).
			Debug("Rate limited, dropping")
		return
	}

	gs := d.snapshots.Current()

	var est *models.PPEstimate
	if cmd.Kind == "pp" && d.metrics != nil && gs != nil && gs.Beatmap != nil {
		var err error
		est, err = d.metrics.Estimate(ctx, gs)
		if err != nil {
			// Placeholders render empty; the viewer still gets a response.
			d.log.WithError(err).Debug("Estimate unavailable for command")
			est = nil
		}
	}

	out := render.Render(cmd.Template, render.NewContext(gs, est))

	d.mu.RLock()
	transport := d.transport
	d.mu.RUnlock()
	if transport == nil {
		d.log.Debug("No transport wired, response dropped")
		return
	}

	if err := transport.Send(ctx, ev, out); err != nil {
		d.log.WithError(err).WithField("command", cmd.Name).
			Warn("Send failed, response dropped")
	}
}

// match finds the first enabled command whose trigger matches, in
// configuration declaration order. A trigger matches when the message equals
// it or starts with it followed by a space; comparison is case-insensitive
// on the trigger region only.
func (d *Dispatcher) match(text string) *config.CommandSpec {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for i := range d.commands {
		cmd := &d.commands[i]
		if !cmd.IsEnabled() {
			continue
		}
		if matchesTrigger(text, cmd.Trigger) {
			return cmd
		}
	}
	return nil
}

func matchesTrigger(text, trigger string) bool {
	if trigger == "" || len(text) < len(trigger) {
		return false
	}
	if !strings.EqualFold(text[:len(trigger)], trigger) {
		return false
	}
	return len(text) == len(trigger) || text[len(trigger)] == ' '
}
