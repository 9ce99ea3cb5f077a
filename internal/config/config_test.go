package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.HistoryLimit != 100 {
		t.Errorf("Expected default history limit 100, got %d", config.HistoryLimit)
	}

	if config.Interval() != 10*time.Second {
		t.Errorf("Expected default sweep interval 10s, got %s", config.Interval())
	}

	if config.LogLevel != "info" {
		t.Errorf("Expected default log level info, got %s", config.LogLevel)
	}

	if config.ThumbnailSize != 128 {
		t.Errorf("Expected default thumbnail size 128, got %d", config.ThumbnailSize)
	}

	if config.DatabasePath != "" {
		t.Errorf("Expected default database path empty, got %s", config.DatabasePath)
	}
}

func TestConfigManager_LoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	cm := NewConfigManagerWithPath(configPath)

	config, err := cm.Load()
	if err != nil {
		t.Fatalf("Expected no error loading non-existent config, got: %v", err)
	}

	// Should return default config
	expectedDefault := DefaultConfig()
	if *config != *expectedDefault {
		t.Errorf("Expected default config %+v, got %+v", expectedDefault, config)
	}
}

func TestConfigManager_SaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nested", "config.yaml")

	cm := NewConfigManagerWithPath(configPath)

	testConfig := &Config{
		HistoryLimit:   250,
		SweepInterval:  Duration(30 * time.Second),
		DatabasePath:   "/custom/drawer.db",
		LogLevel:       "debug",
		ThumbnailSize:  64,
		HistoryTagName: "History",
	}

	if err := cm.Save(testConfig); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Config file was not created: %v", err)
	}
	if !strings.Contains(string(data), "sweep_interval: 30s") {
		t.Errorf("Expected human readable duration in file, got:\n%s", data)
	}

	loadedConfig, err := cm.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if *loadedConfig != *testConfig {
		t.Errorf("Expected %+v, got %+v", testConfig, loadedConfig)
	}
}

func TestConfigManager_LoadPartial(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	content := "history_limit: 42\nsweep_interval: 5\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := NewConfigManagerWithPath(configPath).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if config.HistoryLimit != 42 {
		t.Errorf("Expected history limit 42, got %d", config.HistoryLimit)
	}
	if config.Interval() != 5*time.Second {
		t.Errorf("Expected bare integer interval to mean seconds, got %s", config.Interval())
	}
	if config.LogLevel != DefaultLogLevel || config.ThumbnailSize != DefaultThumbnailSize {
		t.Errorf("Expected missing keys to keep defaults, got %+v", config)
	}
}

func TestConfigManager_LoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "history_limit: [oops"},
		{"bad duration", "sweep_interval: soon"},
		{"invalid value", "history_limit: -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			if _, err := NewConfigManagerWithPath(configPath).Load(); err == nil {
				t.Error("Expected error, got none")
			}
		})
	}
}

func TestConfigManager_Validation(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	cm := NewConfigManagerWithPath(configPath)

	valid := func(mutate func(*Config)) *Config {
		c := DefaultConfig()
		mutate(c)
		return c
	}

	tests := []struct {
		name        string
		config      *Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			config:      valid(func(c *Config) { c.HistoryLimit = 50 }),
			expectError: false,
		},
		{
			name:        "zero history limit",
			config:      valid(func(c *Config) { c.HistoryLimit = 0 }),
			expectError: true,
			errorMsg:    "history_limit must be greater than 0",
		},
		{
			name:        "negative history limit",
			config:      valid(func(c *Config) { c.HistoryLimit = -5 }),
			expectError: true,
			errorMsg:    "history_limit must be greater than 0",
		},
		{
			name:        "excessive history limit",
			config:      valid(func(c *Config) { c.HistoryLimit = 15000 }),
			expectError: true,
			errorMsg:    "history_limit cannot exceed 10000 items",
		},
		{
			name:        "sweep interval too short",
			config:      valid(func(c *Config) { c.SweepInterval = Duration(time.Millisecond) }),
			expectError: true,
			errorMsg:    "sweep_interval must be at least 1s",
		},
		{
			name:        "unknown log level",
			config:      valid(func(c *Config) { c.LogLevel = "loud" }),
			expectError: true,
			errorMsg:    "log_level must be one of debug, info, warn, error",
		},
		{
			name:        "thumbnail too large",
			config:      valid(func(c *Config) { c.ThumbnailSize = 4096 }),
			expectError: true,
			errorMsg:    "thumbnail_size must be between 16 and 1024",
		},
		{
			name:        "zero values take defaults",
			config:      &Config{HistoryLimit: 10},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cm.Save(tt.config)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for %s, but got none", tt.name)
				} else if tt.errorMsg != "" && err.Error() != "invalid configuration: "+tt.errorMsg {
					t.Errorf("Expected error message '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Unexpected error for %s: %v", tt.name, err)
			}
		})
	}
}

func TestConfigManager_Update(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	cm := NewConfigManagerWithPath(configPath)

	tests := []struct {
		name        string
		key         string
		value       string
		expectError bool
	}{
		{"valid history-limit", "history-limit", "200", false},
		{"valid sweep-interval", "sweep-interval", "30s", false},
		{"valid database-path", "database-path", "/custom/drawer.db", false},
		{"valid log-level", "log-level", "debug", false},
		{"valid thumbnail-size", "thumbnail-size", "256", false},
		{"valid history-tag-name", "history-tag-name", "Clipboard", false},
		{"invalid key", "invalid-key", "value", true},
		{"invalid history-limit", "history-limit", "not-a-number", true},
		{"out of range history-limit", "history-limit", "0", true},
		{"invalid sweep-interval", "sweep-interval", "later", true},
		{"invalid log-level", "log-level", "verbose", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cm.Update(tt.key, tt.value)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for %s, but got none", tt.name)
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error for %s: %v", tt.name, err)
			}

			retrievedValue, err := cm.Get(tt.key)
			if err != nil {
				t.Errorf("Failed to get value after update: %v", err)
			} else if retrievedValue != tt.value {
				t.Errorf("Expected retrieved value %s, got %s", tt.value, retrievedValue)
			}
		})
	}
}

func TestConfigManager_List(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	cm := NewConfigManagerWithPath(configPath)

	values, err := cm.List()
	if err != nil {
		t.Fatalf("Failed to list default config: %v", err)
	}

	for _, key := range Keys {
		if _, exists := values[key]; !exists {
			t.Errorf("Expected key %s to exist in list output", key)
		}
	}
	if len(values) != len(Keys) {
		t.Errorf("Expected %d keys, got %d", len(Keys), len(values))
	}

	if values["history-limit"] != "100" {
		t.Errorf("Expected default history-limit 100, got %s", values["history-limit"])
	}
	if values["sweep-interval"] != "10s" {
		t.Errorf("Expected default sweep-interval 10s, got %s", values["sweep-interval"])
	}
	if values["database-path"] != "[default]" {
		t.Errorf("Expected default database-path [default], got %s", values["database-path"])
	}
}

func TestConfigManager_GetConfigPath(t *testing.T) {
	configPath := "/test/config/path.yaml"
	cm := NewConfigManagerWithPath(configPath)

	if cm.GetConfigPath() != configPath {
		t.Errorf("Expected config path %s, got %s", configPath, cm.GetConfigPath())
	}
}

func TestNewConfigManager(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tempDir)
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	cm := NewConfigManager()

	want := filepath.Join(tempDir, "drawer", "config.yaml")
	if cm.GetConfigPath() != want {
		t.Errorf("Expected config path %s, got %s", want, cm.GetConfigPath())
	}
}
