package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the base JSON Schema for the nowplay configuration.
// It reflects the Config struct from types.go but excludes the 'Extensions'
// field; unknown top-level keys are extension sections (e.g. logging) and are
// left unvalidated.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Unknown top-level keys are extension sections, so they stay allowed.
		AllowAdditionalProperties: true,
		// Expand struct references instead of using $ref for cleaner base schema.
		ExpandedStruct: true,
		// Use YAML field names for property names
		FieldNameTag: "yaml",
	}

	// A temporary struct omits the Extensions field so it's not included
	// in the schema.
	type BaseConfig struct {
		Version  string        `yaml:"version" jsonschema:"description=Configuration version (e.g. '1.0')"`
		Osu      *OsuConfig    `yaml:"osu,omitempty" jsonschema:"description=Game state source settings"`
		Twitch   *TwitchConfig `yaml:"twitch,omitempty" jsonschema:"description=Chat transport settings"`
		Daemon   *DaemonConfig `yaml:"daemon,omitempty" jsonschema:"description=Daemon settings"`
		Commands []CommandSpec `yaml:"commands,omitempty" jsonschema:"description=Chat commands in matching priority order"`
	}

	schema := r.Reflect(&BaseConfig{})
	schema.Title = "NowPlay Configuration"
	schema.Description = "Base schema for nowplay.yml properties."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}
