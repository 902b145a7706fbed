package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeConfigs(t *testing.T) {
	base := &Config{
		Version: "1.0",
		Osu: &OsuConfig{
			Client:       "stable",
			PollInterval: "250ms",
		},
		Twitch: &TwitchConfig{
			ClientID:    "id",
			Token:       "base-token",
			Broadcaster: "basechan",
		},
		Commands: []CommandSpec{{Name: "np", Trigger: "!np"}},
	}
	override := &Config{
		Osu: &OsuConfig{PollInterval: "100ms"},
		Twitch: &TwitchConfig{
			Token: "override-token",
		},
	}

	merged := mergeConfigs(base, override)

	assert.Equal(t, "stable", merged.Osu.Client, "unset override fields keep the base value")
	assert.Equal(t, "100ms", merged.Osu.PollInterval)
	assert.Equal(t, "override-token", merged.Twitch.Token)
	assert.Equal(t, "basechan", merged.Twitch.Broadcaster)
	assert.Len(t, merged.Commands, 1, "commands untouched when override declares none")
}

func TestMergeConfigsReplacesCommands(t *testing.T) {
	base := &Config{
		Commands: []CommandSpec{
			{Name: "np", Trigger: "!np"},
			{Name: "pp", Trigger: "!pp"},
		},
	}
	override := &Config{
		Commands: []CommandSpec{{Name: "song", Trigger: "!song"}},
	}

	merged := mergeConfigs(base, override)

	// The command list replaces wholesale; merging an ordered list
	// element-wise would scramble matching priority.
	require.Len(t, merged.Commands, 1)
	assert.Equal(t, "song", merged.Commands[0].Name)
}

func TestMergeConfigsNilSections(t *testing.T) {
	base := &Config{Osu: &OsuConfig{Client: "stable"}}
	override := &Config{Twitch: &TwitchConfig{Token: "tok"}}

	merged := mergeConfigs(base, override)

	assert.Equal(t, "stable", merged.Osu.Client)
	require.NotNil(t, merged.Twitch)
	assert.Equal(t, "tok", merged.Twitch.Token)
	assert.Nil(t, merged.Daemon)
}

func TestMergeConfigsExtensions(t *testing.T) {
	base := &Config{
		Extensions: map[string]interface{}{
			"logging": map[string]interface{}{"level": "info", "format": "text"},
		},
	}
	override := &Config{
		Extensions: map[string]interface{}{
			"logging": map[string]interface{}{"level": "debug"},
			"extra":   map[string]interface{}{"on": true},
		},
	}

	merged := mergeConfigs(base, override)

	logging := merged.Extensions["logging"].(map[string]interface{})
	assert.Equal(t, "debug", logging["level"], "override key wins")
	assert.Equal(t, "text", logging["format"], "base key survives")
	assert.Contains(t, merged.Extensions, "extra")
}

func TestMergeDaemon(t *testing.T) {
	watch := false
	base := &DaemonConfig{ConfigDebounceMs: 100}
	override := &DaemonConfig{ConfigWatch: &watch}

	merged := mergeDaemon(base, override)

	require.NotNil(t, merged.ConfigWatch)
	assert.False(t, *merged.ConfigWatch)
	assert.Equal(t, 100, merged.ConfigDebounceMs)
}
