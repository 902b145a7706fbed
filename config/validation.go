package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/nowplaybot/nowplay/errors"
)

var commandNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// MaxPollInterval bounds how stale the snapshot is allowed to get.
const MaxPollInterval = 500 * time.Millisecond

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Osu != nil {
		if err := validateOsu(c.Osu); err != nil {
			return err
		}
	}

	if c.Twitch != nil {
		if err := validateTwitch(c.Twitch); err != nil {
			return err
		}
	}

	seenNames := make(map[string]bool)
	for i := range c.Commands {
		cmd := &c.Commands[i]
		if err := validateCommand(cmd); err != nil {
			return err
		}
		if seenNames[cmd.Name] {
			return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("duplicate command name '%s'", cmd.Name)).
				WithDetail("command", cmd.Name)
		}
		seenNames[cmd.Name] = true
	}

	return nil
}

func validateOsu(osu *OsuConfig) error {
	switch osu.Client {
	case "", "auto", "stable", "lazer":
	default:
		return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("osu.client must be auto, stable, or lazer, got '%s'", osu.Client))
	}

	if osu.PollInterval != "" {
		d, err := time.ParseDuration(osu.PollInterval)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, "osu.poll_interval is not a valid duration").
				WithDetail("poll_interval", osu.PollInterval)
		}
		if d <= 0 || d > MaxPollInterval {
			return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("osu.poll_interval must be between 0 and %s", MaxPollInterval)).
				WithDetail("poll_interval", osu.PollInterval)
		}
	}

	return nil
}

func validateTwitch(twitch *TwitchConfig) error {
	// A twitch section is only meaningful with credentials; partial sections
	// are a config mistake, not a feature.
	if twitch.Token != "" || twitch.Broadcaster != "" || twitch.ClientID != "" {
		if twitch.Token == "" {
			return errors.New(errors.ErrCodeConfigValidation, "twitch.token is required when the twitch section is configured")
		}
		if twitch.Broadcaster == "" {
			return errors.New(errors.ErrCodeConfigValidation, "twitch.broadcaster is required when the twitch section is configured")
		}
		if twitch.ClientID == "" {
			return errors.New(errors.ErrCodeConfigValidation, "twitch.client_id is required when the twitch section is configured")
		}
	}

	if twitch.Cooldown != "" {
		if _, err := time.ParseDuration(twitch.Cooldown); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, "twitch.cooldown is not a valid duration").
				WithDetail("cooldown", twitch.Cooldown)
		}
	}

	return nil
}

func validateCommand(cmd *CommandSpec) error {
	if cmd.Name == "" {
		return errors.New(errors.ErrCodeConfigValidation, "command name cannot be empty")
	}
	if !commandNameRegex.MatchString(cmd.Name) {
		return errors.New(errors.ErrCodeConfigValidation, "command name must start with a letter and contain only letters, numbers, underscores, and hyphens").
			WithDetail("name", cmd.Name)
	}
	if cmd.Trigger == "" {
		return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("command '%s' has no trigger", cmd.Name)).
			WithDetail("command", cmd.Name)
	}
	switch cmd.Kind {
	case "", "np", "pp":
	default:
		return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("command '%s' has unknown kind '%s'", cmd.Name, cmd.Kind)).
			WithDetail("command", cmd.Name)
	}
	return nil
}
