package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

//go:generate go run ../tools/schema-generator/

// Default values applied by SetDefaults.
const (
	DefaultPollInterval = 250 * time.Millisecond
	DefaultCompanionURL = "ws://127.0.0.1:20727/ws"
	DefaultChatCooldown = time.Second

	DefaultNowPlayingTemplate = "{artist} - {title} [{diff}] ({creator}) {mods} | {status} {link}"
	DefaultPPTemplate         = "95%: {pp_95}pp | 97%: {pp_97}pp | 98%: {pp_98}pp | 99%: {pp_99}pp | 100%: {pp_100}pp {mods}"
)

// OsuConfig controls how the daemon locates and reads game state.
type OsuConfig struct {
	Client       string   `yaml:"client,omitempty" json:"client,omitempty" toml:"client,omitempty" jsonschema:"description=Which client to track: auto (default) / stable / lazer,enum=auto,enum=stable,enum=lazer"`
	PollInterval string   `yaml:"poll_interval,omitempty" json:"poll_interval,omitempty" toml:"poll_interval,omitempty" jsonschema:"description=How often to poll game state (default: 250ms, max 500ms)"`
	SongsDir     string   `yaml:"songs_dir,omitempty" json:"songs_dir,omitempty" toml:"songs_dir,omitempty" jsonschema:"description=Override for the stable Songs directory (default: discovered from the process)"`
	CompanionURL string   `yaml:"companion_url,omitempty" json:"companion_url,omitempty" toml:"companion_url,omitempty" jsonschema:"description=Websocket endpoint of the lazer companion (default: ws://127.0.0.1:20727/ws)"`
	PPCommand    []string `yaml:"pp_command,omitempty" json:"pp_command,omitempty" toml:"pp_command,omitempty" jsonschema:"description=External performance calculator command and base arguments"`
}

// PollIntervalDuration returns the parsed poll interval, falling back to the
// default when unset or unparseable.
func (o *OsuConfig) PollIntervalDuration() time.Duration {
	if o == nil || o.PollInterval == "" {
		return DefaultPollInterval
	}
	d, err := time.ParseDuration(o.PollInterval)
	if err != nil || d <= 0 {
		return DefaultPollInterval
	}
	return d
}

// TwitchConfig holds chat transport credentials and behavior. The token is an
// existing user access token with user:read:chat and user:write:chat scopes;
// use ${VAR} expansion to keep it out of the file.
type TwitchConfig struct {
	ClientID    string `yaml:"client_id,omitempty" json:"client_id,omitempty" toml:"client_id,omitempty" jsonschema:"description=Twitch application client id"`
	Token       string `yaml:"token,omitempty" json:"token,omitempty" toml:"token,omitempty" jsonschema:"description=User access token (supports ${VAR} expansion)"`
	Broadcaster string `yaml:"broadcaster,omitempty" json:"broadcaster,omitempty" toml:"broadcaster,omitempty" jsonschema:"description=Broadcaster login whose chat is joined"`
	Sender      string `yaml:"sender,omitempty" json:"sender,omitempty" toml:"sender,omitempty" jsonschema:"description=Login the bot sends as (default: broadcaster)"`
	ReplyToUser *bool  `yaml:"reply_to_user,omitempty" json:"reply_to_user,omitempty" toml:"reply_to_user,omitempty" jsonschema:"description=Thread responses onto the triggering message (default: true)"`
	Cooldown    string `yaml:"cooldown,omitempty" json:"cooldown,omitempty" toml:"cooldown,omitempty" jsonschema:"description=Minimum interval between responses per sender (default: 1s)"`
}

// CooldownDuration returns the per-sender cooldown, defaulting to 1s.
func (t *TwitchConfig) CooldownDuration() time.Duration {
	if t == nil || t.Cooldown == "" {
		return DefaultChatCooldown
	}
	d, err := time.ParseDuration(t.Cooldown)
	if err != nil || d <= 0 {
		return DefaultChatCooldown
	}
	return d
}

// DaemonConfig holds configuration for the nowplay daemon (nowplayd).
type DaemonConfig struct {
	ConfigWatch      *bool `yaml:"config_watch,omitempty" json:"config_watch,omitempty" toml:"config_watch,omitempty" jsonschema:"description=Enable config watching (default: true)"`
	ConfigDebounceMs int   `yaml:"config_debounce_ms,omitempty" json:"config_debounce_ms,omitempty" toml:"config_debounce_ms,omitempty" jsonschema:"description=Debounce window for rapid config changes in milliseconds (default: 100)"`
}

// CommandSpec declares a single chat command. Declaration order matters: the
// first enabled command whose trigger matches an incoming message wins.
type CommandSpec struct {
	Name     string `yaml:"name" json:"name" toml:"name" jsonschema:"description=Unique command name"`
	Kind     string `yaml:"kind,omitempty" json:"kind,omitempty" toml:"kind,omitempty" jsonschema:"description=Command kind: np (state only) or pp (state plus performance estimate),enum=np,enum=pp"`
	Trigger  string `yaml:"trigger" json:"trigger" toml:"trigger" jsonschema:"description=Chat trigger, matched against the start of the message (e.g. !np)"`
	Template string `yaml:"template,omitempty" json:"template,omitempty" toml:"template,omitempty" jsonschema:"description=Response template with {placeholder} tokens"`
	Enabled  *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty" toml:"enabled,omitempty" jsonschema:"description=Whether this command responds (default: true)"`
}

// IsEnabled reports whether the command should respond to chat.
func (c *CommandSpec) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Config represents the nowplay.yml / nowplay.toml configuration.
type Config struct {
	Version string `yaml:"version" json:"version" toml:"version" jsonschema:"description=Configuration version (e.g. 1.0)"`

	Osu    *OsuConfig    `yaml:"osu,omitempty" json:"osu,omitempty" toml:"osu,omitempty" jsonschema:"description=Game state source settings"`
	Twitch *TwitchConfig `yaml:"twitch,omitempty" json:"twitch,omitempty" toml:"twitch,omitempty" jsonschema:"description=Chat transport settings"`
	Daemon *DaemonConfig `yaml:"daemon,omitempty" json:"daemon,omitempty" toml:"daemon,omitempty" jsonschema:"description=Daemon settings"`

	Commands []CommandSpec `yaml:"commands,omitempty" json:"commands,omitempty" toml:"commands,omitempty" jsonschema:"description=Chat commands in matching priority order"`

	// Extensions captures all other top-level keys for extensibility.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" json:"-" jsonschema:"-"`
}

// SetDefaults sets default values for configuration.
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Osu == nil {
		c.Osu = &OsuConfig{}
	}
	if c.Osu.Client == "" {
		c.Osu.Client = "auto"
	}
	if c.Osu.PollInterval == "" {
		c.Osu.PollInterval = DefaultPollInterval.String()
	}
	if c.Osu.CompanionURL == "" {
		c.Osu.CompanionURL = DefaultCompanionURL
	}
	if len(c.Commands) == 0 {
		c.Commands = DefaultCommands()
	}
	for i := range c.Commands {
		cmd := &c.Commands[i]
		if cmd.Kind == "" {
			cmd.Kind = "np"
		}
		if cmd.Template == "" {
			switch cmd.Kind {
			case "pp":
				cmd.Template = DefaultPPTemplate
			default:
				cmd.Template = DefaultNowPlayingTemplate
			}
		}
	}
}

// DefaultCommands returns the built-in command set used when the config file
// declares none.
func DefaultCommands() []CommandSpec {
	return []CommandSpec{
		{Name: "np", Kind: "np", Trigger: "!np", Template: DefaultNowPlayingTemplate},
		{Name: "pp", Kind: "pp", Trigger: "!pp", Template: DefaultPPTemplate},
	}
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded nowplay.yml into the provided target struct. The target must be a
// pointer. This provides a type-safe way for add-on sections (e.g. logging)
// to access their custom configuration.
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		// The target struct will simply remain zero-valued.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
