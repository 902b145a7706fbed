package logging

// Config defines the structure for the logging section of nowplay.yml.
type Config struct {
	// Level is the minimum log level to output (e.g., "debug", "info", "warn", "error").
	// Can be overridden by the NOWPLAY_LOG_LEVEL environment variable.
	Level string `yaml:"level" toml:"level" json:"level,omitempty" mapstructure:"level"`

	// ReportCaller, if true, includes the file, line, and function name in the log output.
	// Can be enabled with the NOWPLAY_LOG_CALLER=true environment variable.
	ReportCaller bool `yaml:"report_caller" toml:"report_caller" json:"report_caller,omitempty" mapstructure:"report_caller"`

	// File configures logging to a file.
	File FileSinkConfig `yaml:"file" toml:"file" json:"file,omitempty" mapstructure:"file"`

	// Format configures the appearance of the log output.
	Format FormatConfig `yaml:"format" toml:"format" json:"format,omitempty" mapstructure:"format"`

	// Show limits log output to the listed components. Empty means all.
	Show []string `yaml:"show" toml:"show" json:"show,omitempty" mapstructure:"show"`

	// Hide suppresses the listed components.
	Hide []string `yaml:"hide" toml:"hide" json:"hide,omitempty" mapstructure:"hide"`
}

// IsComponentVisible reports whether a component's log lines should be shown
// under the given config. Hide wins over Show.
func IsComponentVisible(component string, cfg *Config) bool {
	if cfg == nil {
		return true
	}
	for _, h := range cfg.Hide {
		if h == component {
			return false
		}
	}
	if len(cfg.Show) == 0 {
		return true
	}
	for _, s := range cfg.Show {
		if s == component {
			return true
		}
	}
	return false
}

// FileSinkConfig configures the file logging sink.
type FileSinkConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled,omitempty" mapstructure:"enabled"`
	// Path is the full path to the log file.
	Path string `yaml:"path" toml:"path" json:"path,omitempty" mapstructure:"path"`
}

// FormatConfig controls the log output format.
type FormatConfig struct {
	// Preset can be "default" (rich text), "simple" (minimal text), or "json".
	Preset string `yaml:"preset" toml:"preset" json:"preset,omitempty" mapstructure:"preset"`
	// DisableTimestamp disables the timestamp from the "default" and "simple" formats.
	DisableTimestamp bool `yaml:"disable_timestamp" toml:"disable_timestamp" json:"disable_timestamp,omitempty" mapstructure:"disable_timestamp"`
	// DisableComponent disables the component name from the "default" and "simple" formats.
	DisableComponent bool `yaml:"disable_component" toml:"disable_component" json:"disable_component,omitempty" mapstructure:"disable_component"`
	// StructuredToStderr controls when structured logs are sent to stderr.
	// Can be "auto" (default), "always", or "never".
	StructuredToStderr string `yaml:"structured_to_stderr" toml:"structured_to_stderr" json:"structured_to_stderr,omitempty" mapstructure:"structured_to_stderr"`
}
