package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yiblet/drawer/internal/appdir"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHistoryLimit  = 100
	MaxHistoryLimit      = 10000
	DefaultSweepInterval = 10 * time.Second
	MinSweepInterval     = time.Second
	DefaultLogLevel      = "info"
	DefaultThumbnailSize = 128
	MinThumbnailSize     = 16
	MaxThumbnailSize     = 1024
)

// Keys lists the configuration keys accepted by Get and Update, in display order.
var Keys = []string{
	"history-limit",
	"sweep-interval",
	"database-path",
	"log-level",
	"thumbnail-size",
	"history-tag-name",
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Duration is a time.Duration written in YAML as a string such as "10s".
// Bare integers are read as seconds.
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := parseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// Config represents the drawer configuration
type Config struct {
	HistoryLimit   int      `yaml:"history_limit"`
	SweepInterval  Duration `yaml:"sweep_interval"`
	DatabasePath   string   `yaml:"database_path,omitempty"`
	LogLevel       string   `yaml:"log_level"`
	ThumbnailSize  int      `yaml:"thumbnail_size"`
	HistoryTagName string   `yaml:"history_tag_name,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		HistoryLimit:  DefaultHistoryLimit,
		SweepInterval: Duration(DefaultSweepInterval),
		LogLevel:      DefaultLogLevel,
		ThumbnailSize: DefaultThumbnailSize,
	}
}

// Interval returns the sweep interval as a time.Duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.SweepInterval)
}

// ConfigManager manages configuration persistence
type ConfigManager struct {
	configPath string
}

// NewConfigManager creates a configuration manager for the XDG config file
func NewConfigManager() *ConfigManager {
	return NewConfigManagerWithPath(appdir.Default().ConfigFile())
}

// NewConfigManagerWithPath creates a config manager with custom config path
func NewConfigManagerWithPath(configPath string) *ConfigManager {
	return &ConfigManager{
		configPath: configPath,
	}
}

// Load reads the configuration from file, or returns default if file doesn't exist.
// Keys missing from the file keep their default values.
func (cm *ConfigManager) Load() (*Config, error) {
	data, err := os.ReadFile(cm.configPath)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateAndSetDefaults(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save writes the configuration to file
func (cm *ConfigManager) Save(config *Config) error {
	if err := validateAndSetDefaults(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	configDir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cm.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// validateAndSetDefaults validates configuration and sets defaults for optional fields
func validateAndSetDefaults(config *Config) error {
	if config.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be greater than 0")
	}
	if config.HistoryLimit > MaxHistoryLimit {
		return fmt.Errorf("history_limit cannot exceed %d items", MaxHistoryLimit)
	}

	if config.SweepInterval == 0 {
		config.SweepInterval = Duration(DefaultSweepInterval)
	}
	if config.Interval() < MinSweepInterval {
		return fmt.Errorf("sweep_interval must be at least %s", MinSweepInterval)
	}

	if config.LogLevel == "" {
		config.LogLevel = DefaultLogLevel
	}
	config.LogLevel = strings.ToLower(config.LogLevel)
	if !contains(logLevels, config.LogLevel) {
		return fmt.Errorf("log_level must be one of %s", strings.Join(logLevels, ", "))
	}

	if config.ThumbnailSize == 0 {
		config.ThumbnailSize = DefaultThumbnailSize
	}
	if config.ThumbnailSize < MinThumbnailSize || config.ThumbnailSize > MaxThumbnailSize {
		return fmt.Errorf("thumbnail_size must be between %d and %d", MinThumbnailSize, MaxThumbnailSize)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func (cm *ConfigManager) GetConfigPath() string {
	return cm.configPath
}

// Update modifies a specific configuration value
func (cm *ConfigManager) Update(key, value string) error {
	config, err := cm.Load()
	if err != nil {
		return err
	}

	switch key {
	case "history-limit":
		historyLimit, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for history-limit: %s", value)
		}
		config.HistoryLimit = historyLimit
	case "sweep-interval":
		d, err := parseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid value for sweep-interval: %w", err)
		}
		config.SweepInterval = Duration(d)
	case "database-path":
		config.DatabasePath = value
	case "log-level":
		config.LogLevel = value
	case "thumbnail-size":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for thumbnail-size: %s", value)
		}
		config.ThumbnailSize = size
	case "history-tag-name":
		config.HistoryTagName = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	return cm.Save(config)
}

// Get returns the value for a specific configuration key
func (cm *ConfigManager) Get(key string) (string, error) {
	config, err := cm.Load()
	if err != nil {
		return "", err
	}

	values := config.values()
	value, ok := values[key]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
	return value, nil
}

// List returns all configuration keys and values
func (cm *ConfigManager) List() (map[string]string, error) {
	config, err := cm.Load()
	if err != nil {
		return nil, err
	}
	return config.values(), nil
}

func (c *Config) values() map[string]string {
	result := map[string]string{
		"history-limit":    strconv.Itoa(c.HistoryLimit),
		"sweep-interval":   c.Interval().String(),
		"database-path":    c.DatabasePath,
		"log-level":        c.LogLevel,
		"thumbnail-size":   strconv.Itoa(c.ThumbnailSize),
		"history-tag-name": c.HistoryTagName,
	}

	for _, key := range []string{"database-path", "history-tag-name"} {
		if result[key] == "" {
			result[key] = "[default]"
		}
	}

	return result
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
