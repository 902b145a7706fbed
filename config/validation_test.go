package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nowplaybot/nowplay/errors"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateOsu(t *testing.T) {
	tests := []struct {
		name    string
		osu     *OsuConfig
		wantErr bool
	}{
		{"auto", &OsuConfig{Client: "auto"}, false},
		{"stable", &OsuConfig{Client: "stable"}, false},
		{"lazer", &OsuConfig{Client: "lazer"}, false},
		{"empty client", &OsuConfig{}, false},
		{"unknown client", &OsuConfig{Client: "mania"}, true},
		{"valid interval", &OsuConfig{PollInterval: "250ms"}, false},
		{"interval at cap", &OsuConfig{PollInterval: "500ms"}, false},
		{"interval above cap", &OsuConfig{PollInterval: "2s"}, true},
		{"negative interval", &OsuConfig{PollInterval: "-1s"}, true},
		{"garbage interval", &OsuConfig{PollInterval: "often"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Osu = tt.osu

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeConfigValidation, errors.GetCode(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateTwitch(t *testing.T) {
	tests := []struct {
		name    string
		twitch  *TwitchConfig
		wantErr bool
	}{
		{"empty section", &TwitchConfig{}, false},
		{"complete", &TwitchConfig{ClientID: "id", Token: "tok", Broadcaster: "chan"}, false},
		{"missing token", &TwitchConfig{ClientID: "id", Broadcaster: "chan"}, true},
		{"missing broadcaster", &TwitchConfig{ClientID: "id", Token: "tok"}, true},
		{"missing client id", &TwitchConfig{Token: "tok", Broadcaster: "chan"}, true},
		{"bad cooldown", &TwitchConfig{ClientID: "id", Token: "tok", Broadcaster: "chan", Cooldown: "soonish"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Twitch = tt.twitch

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateCommands(t *testing.T) {
	tests := []struct {
		name     string
		commands []CommandSpec
		wantErr  bool
	}{
		{"valid", []CommandSpec{{Name: "np", Trigger: "!np"}}, false},
		{"empty name", []CommandSpec{{Trigger: "!np"}}, true},
		{"bad name", []CommandSpec{{Name: "1np", Trigger: "!np"}}, true},
		{"no trigger", []CommandSpec{{Name: "np"}}, true},
		{"unknown kind", []CommandSpec{{Name: "np", Kind: "score", Trigger: "!np"}}, true},
		{"duplicate names", []CommandSpec{
			{Name: "np", Trigger: "!np"},
			{Name: "np", Trigger: "!nowplaying"},
		}, true},
		{"distinct names same trigger", []CommandSpec{
			{Name: "a", Trigger: "!np"},
			{Name: "b", Trigger: "!np"},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Commands = tt.commands

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
