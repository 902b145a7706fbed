package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nowplaybot/nowplay/config"
	"github.com/nowplaybot/nowplay/pkg/models"
	"github.com/nowplaybot/nowplay/testutil"
)

type fakeSource struct {
	state *models.GameState
}

func (f *fakeSource) Current() *models.GameState { return f.state }

type fakeEstimator struct {
	mu    sync.Mutex
	calls int
	est   *models.PPEstimate
	err   error
}

func (f *fakeEstimator) Estimate(_ context.Context, _ *models.GameState) (*models.PPEstimate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.est, f.err
}

type fakeTransport struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeTransport) Send(_ context.Context, _ models.ChatEvent, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeTransport) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func boolPtr(b bool) *bool { return &b }

func testCommands() []config.CommandSpec {
	return []config.CommandSpec{
		{Name: "np", Kind: "np", Trigger: "!np", Template: "{artist} - {title}"},
		{Name: "pp", Kind: "pp", Trigger: "!pp", Template: "{pp_98}pp at 98%"},
	}
}

func newTestDispatcher(commands []config.CommandSpec, src SnapshotSource, est Estimator, tr Transport) *Dispatcher {
	// No cooldown so tests exercising matching are not rate limited.
	return New(commands, src, est, tr, 0)
}

func TestDispatcherRespondsToTrigger(t *testing.T) {
	tr := &fakeTransport{}
	d := newTestDispatcher(testCommands(), &fakeSource{state: testutil.GameState()}, nil, tr)

	d.Handle(context.Background(), models.ChatEvent{Sender: "viewer", Text: "!np"})

	require.Len(t, tr.messages(), 1)
	assert.Equal(t, "Camellia - Exit This Earth's Atmosphere", tr.messages()[0])
}

func TestDispatcherTriggerMatching(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"exact", "!np", true},
		{"case insensitive", "!NP", true},
		{"trailing words", "!np please", true},
		{"leading whitespace", "  !np", true},
		{"prefix without boundary", "!npx", false},
		{"mid-message", "hey !np", false},
		{"unrelated", "hello", false},
		{"empty", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{}
			d := newTestDispatcher(testCommands(), &fakeSource{state: testutil.GameState()}, nil, tr)

			d.Handle(context.Background(), models.ChatEvent{Sender: "viewer", Text: tt.text})

			if tt.want {
				assert.Len(t, tr.messages(), 1)
			} else {
				assert.Empty(t, tr.messages())
			}
		})
	}
}

func TestDispatcherFirstEnabledCommandWins(t *testing.T) {
	commands := []config.CommandSpec{
		{Name: "disabled", Trigger: "!np", Template: "disabled", Enabled: boolPtr(false)},
		{Name: "first", Trigger: "!np", Template: "first"},
		{Name: "second", Trigger: "!np", Template: "second"},
	}

	tr := &fakeTransport{}
	d := newTestDispatcher(commands, &fakeSource{state: testutil.GameState()}, nil, tr)

	d.Handle(context.Background(), models.ChatEvent{Sender: "viewer", Text: "!np"})

	require.Len(t, tr.messages(), 1)
	assert.Equal(t, "first", tr.messages()[0])
}

func TestDispatcherPPCommandUsesEstimator(t *testing.T) {
	est := &fakeEstimator{est: testutil.Estimate()}
	tr := &fakeTransport{}
	d := newTestDispatcher(testCommands(), &fakeSource{state: testutil.GameState()}, est, tr)

	d.Handle(context.Background(), models.ChatEvent{Sender: "viewer", Text: "!pp"})

	require.Len(t, tr.messages(), 1)
	assert.Equal(t, "384pp at 98%", tr.messages()[0])
	assert.Equal(t, 1, est.calls)
}

func TestDispatcherNPCommandSkipsEstimator(t *testing.T) {
	est := &fakeEstimator{est: testutil.Estimate()}
	tr := &fakeTransport{}
	d := newTestDispatcher(testCommands(), &fakeSource{state: testutil.GameState()}, est, tr)

	d.Handle(context.Background(), models.ChatEvent{Sender: "viewer", Text: "!np"})

	require.Len(t, tr.messages(), 1)
	assert.Equal(t, 0, est.calls)
}

func TestDispatcherEstimatorErrorStillResponds(t *testing.T) {
	est := &fakeEstimator{err: fmt.Errorf("calculator exited 1")}
	tr := &fakeTransport{}
	d := newTestDispatcher(testCommands(), &fakeSource{state: testutil.GameState()}, est, tr)

	d.Handle(context.Background(), models.ChatEvent{Sender: "viewer", Text: "!pp"})

	require.Len(t, tr.messages(), 1)
	assert.Equal(t, "pp at 98%", tr.messages()[0])
}

func TestDispatcherNoBeatmapSkipsEstimator(t *testing.T) {
	gs := testutil.GameState()
	gs.Beatmap = nil
	est := &fakeEstimator{est: testutil.Estimate()}
	tr := &fakeTransport{}
	d := newTestDispatcher(testCommands(), &fakeSource{state: gs}, est, tr)

	d.Handle(context.Background(), models.ChatEvent{Sender: "viewer", Text: "!pp"})

	require.Len(t, tr.messages(), 1)
	assert.Equal(t, 0, est.calls)
}

func TestDispatcherRateLimitsPerSender(t *testing.T) {
	tr := &fakeTransport{}
	d := New(testCommands(), &fakeSource{state: testutil.GameState()}, nil, tr, 10*time.Second)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	d.now = func() time.Time { return current }

	ctx := context.Background()
	d.Handle(ctx, models.ChatEvent{Sender: "alice", Text: "!np"})
	d.Handle(ctx, models.ChatEvent{Sender: "alice", Text: "!np"})
	assert.Len(t, tr.messages(), 1, "second message inside cooldown should drop")

	// A different sender has an independent bucket.
	d.Handle(ctx, models.ChatEvent{Sender: "bob", Text: "!np"})
	assert.Len(t, tr.messages(), 2)

	// After the cooldown elapses the sender may trigger again.
	current = base.Add(11 * time.Second)
	d.Handle(ctx, models.ChatEvent{Sender: "alice", Text: "!np"})
	assert.Len(t, tr.messages(), 3)
}

func TestDispatcherTransportErrorDropped(t *testing.T) {
	tr := &fakeTransport{err: fmt.Errorf("rejected: 429")}
	d := newTestDispatcher(testCommands(), &fakeSource{state: testutil.GameState()}, nil, tr)

	// Must not panic or retry; the failure is log-and-drop.
	d.Handle(context.Background(), models.ChatEvent{Sender: "viewer", Text: "!np"})
	assert.Empty(t, tr.messages())
}

func TestDispatcherNilTransportDropped(t *testing.T) {
	d := newTestDispatcher(testCommands(), &fakeSource{state: testutil.GameState()}, nil, nil)

	d.Handle(context.Background(), models.ChatEvent{Sender: "viewer", Text: "!np"})
}

func TestDispatcherSetCommands(t *testing.T) {
	tr := &fakeTransport{}
	d := newTestDispatcher(testCommands(), &fakeSource{state: testutil.GameState()}, nil, tr)

	d.SetCommands([]config.CommandSpec{
		{Name: "song", Trigger: "!song", Template: "{title}"},
	})

	ctx := context.Background()
	d.Handle(ctx, models.ChatEvent{Sender: "viewer", Text: "!np"})
	assert.Empty(t, tr.messages(), "old trigger should no longer match")

	d.Handle(ctx, models.ChatEvent{Sender: "viewer", Text: "!song"})
	require.Len(t, tr.messages(), 1)
	assert.Equal(t, "Exit This Earth's Atmosphere", tr.messages()[0])
}

func TestDispatcherSetTransport(t *testing.T) {
	d := newTestDispatcher(testCommands(), &fakeSource{state: testutil.GameState()}, nil, nil)

	tr := &fakeTransport{}
	d.SetTransport(tr)

	d.Handle(context.Background(), models.ChatEvent{Sender: "viewer", Text: "!np"})
	assert.Len(t, tr.messages(), 1)
}
