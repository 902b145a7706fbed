package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nowplaybot/nowplay/errors"
	"github.com/nowplaybot/nowplay/pkg/paths"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads and parses a nowplay configuration file. The format is chosen by
// extension: .toml is parsed as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return loadTOMLBytes(data)
	}
	return LoadFromBytes(data)
}

// LoadDefault finds and loads the configuration with hierarchical merging:
// 1. Global config (~/.config/nowplay/nowplay.yml) - base layer
// 2. Found config (cwd upwards) - overrides global
// 3. Local override (nowplay.override.yml) - overrides all
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}

	return LoadFrom(cwd)
}

// LoadFrom loads configuration with hierarchical merging starting from the given directory
func LoadFrom(startDir string) (*Config, error) {
	return LoadFromWithLogger(startDir, logrus.New())
}

// LoadFromWithLogger loads configuration with hierarchical merging and logging
func LoadFromWithLogger(startDir string, logger *logrus.Logger) (*Config, error) {
	primaryPath, err := FindConfigFile(startDir)
	if err != nil {
		return nil, err
	}

	logger.WithField("path", primaryPath).Debug("Loading configuration")

	var finalConfig *Config

	// 1. Load global config if it exists and isn't already the primary (optional)
	globalPath := getXDGConfigPath()
	if globalPath != "" && globalPath != primaryPath {
		if _, err := os.Stat(globalPath); err == nil {
			logger.WithField("path", globalPath).Debug("Loading global configuration")
			globalConfig, err := parseFile(globalPath)
			if err == nil {
				finalConfig = globalConfig
			} else {
				logger.WithError(err).Warn("Failed to parse global configuration, continuing without it")
			}
		}
	}

	// 2. Load and merge the found config (required)
	primaryConfig, err := parseFile(primaryPath)
	if err != nil {
		return nil, err
	}

	if finalConfig == nil {
		finalConfig = primaryConfig
	} else {
		logger.Debug("Merging found configuration over global configuration")
		finalConfig = mergeConfigs(finalConfig, primaryConfig)
	}

	// 3. Load and merge override files if they exist (optional)
	primaryDir := filepath.Dir(primaryPath)
	overrideFiles := []string{
		filepath.Join(primaryDir, "nowplay.override.yml"),
		filepath.Join(primaryDir, "nowplay.override.yaml"),
		filepath.Join(primaryDir, ".nowplay.override.yml"),
		filepath.Join(primaryDir, ".nowplay.override.yaml"),
	}

	for _, overridePath := range overrideFiles {
		if _, err := os.Stat(overridePath); err == nil {
			logger.WithField("path", overridePath).Debug("Loading local override configuration")

			overrideConfig, err := parseFile(overridePath)
			if err != nil {
				logger.WithError(err).Warn("Failed to parse override file, skipping")
				continue
			}

			finalConfig = mergeConfigs(finalConfig, overrideConfig)
		}
	}

	finalConfig.SetDefaults()

	if err := finalConfig.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Configuration loaded and validated successfully")

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		configData, err := yaml.Marshal(finalConfig)
		if err == nil {
			logger.Debugf("Merged configuration:\n%s", string(configData))
		}
	}

	return finalConfig, nil
}

// LoadFromBytes parses YAML configuration from a byte array.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}

	return finishLoad(&config)
}

func loadTOMLBytes(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var config Config
	if err := toml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
	}

	return finishLoad(&config)
}

func finishLoad(config *Config) (*Config, error) {
	// Validate against schema
	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to create validator")
	}

	if err := validator.Validate(config); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed")
	}

	config.SetDefaults()

	if err := config.Validate(); err != nil {
		return nil, err // Already returns structured error from validation
	}

	return config, nil
}

// parseFile reads and parses a config file without defaults or validation,
// for use in merge layering.
func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config").
			WithDetail("path", path)
	}

	expanded := expandEnvVars(string(data))

	var config Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal([]byte(expanded), &config); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config").
				WithDetail("path", path)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config").
				WithDetail("path", path)
		}
	}

	return &config, nil
}

// FindConfigFile searches for nowplay configuration files with the following
// precedence:
// 1. Current directory up to filesystem root
// 2. XDG config directory (~/.config/nowplay/nowplay.yml or .toml)
func FindConfigFile(startDir string) (string, error) {
	configNames := []string{
		"nowplay.yml",
		"nowplay.yaml",
		"nowplay.toml",
		".nowplay.yml",
		".nowplay.yaml",
	}

	// 1. Search from current directory up to filesystem root
	dir := startDir
	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	// 2. Check XDG config directory
	for _, xdgPath := range getXDGConfigCandidates() {
		if info, err := os.Stat(xdgPath); err == nil && !info.IsDir() {
			return xdgPath, nil
		}
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// getXDGConfigPath returns the primary XDG config path for nowplay.
func getXDGConfigPath() string {
	candidates := getXDGConfigCandidates()
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0]
}

func getXDGConfigCandidates() []string {
	base := paths.ConfigDir()
	if base == "" {
		return nil
	}

	return []string{
		filepath.Join(base, "nowplay.yml"),
		filepath.Join(base, "nowplay.yaml"),
		filepath.Join(base, "nowplay.toml"),
	}
}
