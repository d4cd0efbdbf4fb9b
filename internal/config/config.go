package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/Digital-Shane/folder-tidy/internal/core"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. FOLDER_TIDY_RESERVED_STEM.
const EnvPrefix = "FOLDER_TIDY"

// Config holds user settings for folder-tidy.
type Config struct {
	// ReservedStem is the stem never moved during organize (the tool itself).
	ReservedStem     string `json:"reserved_stem" mapstructure:"reserved_stem"`
	EnableLogging    bool   `json:"enable_logging" mapstructure:"enable_logging"`
	LogRetentionDays int    `json:"log_retention_days" mapstructure:"log_retention_days"`
	// LogLevel and LogFormat configure diagnostic logging.
	LogLevel  string `json:"log_level" mapstructure:"log_level"`
	LogFormat string `json:"log_format" mapstructure:"log_format"`
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"console", "json"}
)

// Keys lists the settable configuration keys in display order.
func Keys() []string {
	return []string{"reserved_stem", "enable_logging", "log_retention_days", "log_level", "log_format"}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ReservedStem:     core.DefaultReservedStem,
		EnableLogging:    true,
		LogRetentionDays: 30,
		LogLevel:         "info",
		LogFormat:        "console",
	}
}

// Dir returns the folder-tidy state directory.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".folder-tidy"), nil
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LockDir returns the directory holding per-folder run locks.
func LockDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "locks"), nil
}

// Load reads the config file, filling missing keys with defaults and
// applying FOLDER_TIDY_* environment overrides.
func Load() (*Config, error) {
	cfg, path, err := read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadForEdit reads the config like Load but skips validation, so a file
// holding a bad value can still be repaired with Set and Save.
func LoadForEdit() (*Config, error) {
	cfg, _, err := read()
	return cfg, err
}

func read() (*Config, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, "", err
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("reserved_stem", defaults.ReservedStem)
	v.SetDefault("enable_logging", defaults.EnableLogging)
	v.SetDefault("log_retention_days", defaults.LogRetentionDays)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, "", fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, path, nil
}

// Validate reports the first invalid setting.
func (cfg *Config) Validate() error {
	for _, key := range Keys() {
		if err := cfg.validateKey(key); err != nil {
			return err
		}
	}
	return nil
}

func (cfg *Config) validateKey(key string) error {
	switch key {
	case "reserved_stem":
		if strings.TrimSpace(cfg.ReservedStem) == "" {
			return fmt.Errorf("reserved_stem must not be empty")
		}
	case "log_retention_days":
		if cfg.LogRetentionDays < 1 {
			return fmt.Errorf("log_retention_days must be at least 1, got %d", cfg.LogRetentionDays)
		}
	case "log_level":
		if !slices.Contains(validLevels, cfg.LogLevel) {
			return fmt.Errorf("log_level must be one of %s, got %q", strings.Join(validLevels, ", "), cfg.LogLevel)
		}
	case "log_format":
		if !slices.Contains(validFormats, cfg.LogFormat) {
			return fmt.Errorf("log_format must be one of %s, got %q", strings.Join(validFormats, ", "), cfg.LogFormat)
		}
	}
	return nil
}

// Value returns the setting named key formatted for display.
func (cfg *Config) Value(key string) string {
	switch key {
	case "reserved_stem":
		return cfg.ReservedStem
	case "enable_logging":
		return strconv.FormatBool(cfg.EnableLogging)
	case "log_retention_days":
		return strconv.Itoa(cfg.LogRetentionDays)
	case "log_level":
		return cfg.LogLevel
	case "log_format":
		return cfg.LogFormat
	}
	return ""
}

// Set parses value into the setting named key and validates it. Other
// settings are left as they are, valid or not.
func (cfg *Config) Set(key, value string) error {
	next := *cfg
	switch key {
	case "reserved_stem":
		next.ReservedStem = value
	case "enable_logging":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("enable_logging: %w", err)
		}
		next.EnableLogging = b
	case "log_retention_days":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("log_retention_days: %w", err)
		}
		next.LogRetentionDays = n
	case "log_level":
		next.LogLevel = strings.ToLower(value)
	case "log_format":
		next.LogFormat = strings.ToLower(value)
	default:
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := next.validateKey(key); err != nil {
		return err
	}
	*cfg = next
	return nil
}

// Save writes the configuration to disk
func (cfg *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
