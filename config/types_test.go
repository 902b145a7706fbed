package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	assert.Equal(t, "1.0", cfg.Version)
	assert.Equal(t, "auto", cfg.Osu.Client)
	assert.Equal(t, DefaultPollInterval.String(), cfg.Osu.PollInterval)
	assert.Equal(t, DefaultCompanionURL, cfg.Osu.CompanionURL)

	require.Len(t, cfg.Commands, 2)
	assert.Equal(t, "!np", cfg.Commands[0].Trigger)
	assert.Equal(t, "!pp", cfg.Commands[1].Trigger)
	assert.Equal(t, DefaultPPTemplate, cfg.Commands[1].Template)
}

func TestSetDefaultsFillsCommandTemplates(t *testing.T) {
	cfg := &Config{
		Commands: []CommandSpec{
			{Name: "np", Trigger: "!np"},
			{Name: "pp", Kind: "pp", Trigger: "!pp"},
			{Name: "custom", Trigger: "!song", Template: "{title}"},
		},
	}
	cfg.SetDefaults()

	assert.Equal(t, "np", cfg.Commands[0].Kind, "kind defaults to np")
	assert.Equal(t, DefaultNowPlayingTemplate, cfg.Commands[0].Template)
	assert.Equal(t, DefaultPPTemplate, cfg.Commands[1].Template)
	assert.Equal(t, "{title}", cfg.Commands[2].Template, "explicit template untouched")
}

func TestPollIntervalDuration(t *testing.T) {
	tests := []struct {
		name string
		cfg  *OsuConfig
		want time.Duration
	}{
		{"nil receiver", nil, DefaultPollInterval},
		{"unset", &OsuConfig{}, DefaultPollInterval},
		{"valid", &OsuConfig{PollInterval: "100ms"}, 100 * time.Millisecond},
		{"unparseable", &OsuConfig{PollInterval: "fast"}, DefaultPollInterval},
		{"non-positive", &OsuConfig{PollInterval: "-5s"}, DefaultPollInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.PollIntervalDuration())
		})
	}
}

func TestCooldownDuration(t *testing.T) {
	assert.Equal(t, DefaultChatCooldown, (*TwitchConfig)(nil).CooldownDuration())
	assert.Equal(t, DefaultChatCooldown, (&TwitchConfig{}).CooldownDuration())
	assert.Equal(t, 5*time.Second, (&TwitchConfig{Cooldown: "5s"}).CooldownDuration())
	assert.Equal(t, DefaultChatCooldown, (&TwitchConfig{Cooldown: "soon"}).CooldownDuration())
}

func TestCommandSpecIsEnabled(t *testing.T) {
	yes, no := true, false

	assert.True(t, (&CommandSpec{}).IsEnabled(), "enabled by default")
	assert.True(t, (&CommandSpec{Enabled: &yes}).IsEnabled())
	assert.False(t, (&CommandSpec{Enabled: &no}).IsEnabled())
}

func TestUnmarshalExtension(t *testing.T) {
	cfg := &Config{
		Extensions: map[string]interface{}{
			"logging": map[string]interface{}{
				"level": "debug",
				"show":  []interface{}{"dispatch", "twitch"},
			},
		},
	}

	var logCfg struct {
		Level string   `yaml:"level"`
		Show  []string `yaml:"show"`
	}
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "debug", logCfg.Level)
	assert.Equal(t, []string{"dispatch", "twitch"}, logCfg.Show)

	// A missing key leaves the target zero-valued.
	var other struct {
		Level string `yaml:"level"`
	}
	require.NoError(t, cfg.UnmarshalExtension("absent", &other))
	assert.Empty(t, other.Level)
}
