package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/caarlos0/env/v11"
)

// appName names the per-user config directory
const appName = "pumphistory"

// Settings contains all application settings
type Settings struct {
	mu sync.RWMutex `json:"-"`

	// Connection settings
	NightscoutURL string `json:"nightscoutUrl" env:"PUMPHISTORY_NIGHTSCOUT_URL" validate:"omitempty,url"`
	APISecret     string `json:"apiSecret" env:"PUMPHISTORY_API_SECRET"` // Plain API secret (will be hashed)
	APIToken      string `json:"apiToken" env:"PUMPHISTORY_API_TOKEN"`   // Token-based auth
	UseToken      bool   `json:"useToken" env:"PUMPHISTORY_USE_TOKEN"`   // Use token instead of secret

	// Logging
	LogLevel  string `json:"logLevel" env:"PUMPHISTORY_LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `json:"logFormat" env:"PUMPHISTORY_LOG_FORMAT" validate:"oneof=text json"`

	// Processing defaults
	LookbackHours     float64 `json:"lookbackHours" env:"PUMPHISTORY_LOOKBACK_HOURS" validate:"gt=0"` // Reservoir history kept
	BasalSchedulePath string  `json:"basalSchedulePath" env:"PUMPHISTORY_BASAL_SCHEDULE"`
	BatchConcurrency  int     `json:"batchConcurrency" env:"PUMPHISTORY_BATCH_CONCURRENCY" validate:"gte=1,lte=64"`

	// Chart settings
	ChartWidth  int `json:"chartWidth" env:"PUMPHISTORY_CHART_WIDTH" validate:"gte=200,lte=8000"`
	ChartHeight int `json:"chartHeight" env:"PUMPHISTORY_CHART_HEIGHT" validate:"gte=100,lte=4000"`
}

// DefaultSettings returns settings with default values
func DefaultSettings() *Settings {
	return &Settings{
		LogLevel:  "info",
		LogFormat: "text",

		LookbackHours:    4,
		BatchConcurrency: 4,

		ChartWidth:  1200,
		ChartHeight: 400,
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	appDir := filepath.Join(configDir, appName)
	if err := os.MkdirAll(appDir, 0750); err != nil {
		return "", err
	}

	return appDir, nil
}

// GetConfigPath returns the full path to the config file
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// Load loads settings from disk, falling back to defaults when no file exists
func (s *Settings) Load() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return s.LoadFile(path)
}

// LoadFile loads settings from path, then applies environment overrides
func (s *Settings) LoadFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.copySettingsFields(DefaultSettings())

	data, err := os.ReadFile(path) //nolint:gosec // Config path is controlled by the app or the caller's flag
	switch {
	case os.IsNotExist(err):
		// Use defaults if file doesn't exist
	case err != nil:
		return fmt.Errorf("reading settings: %w", err)
	default:
		if err := json.Unmarshal(data, s); err != nil {
			return fmt.Errorf("parsing settings %s: %w", path, err)
		}
	}

	if err := env.Parse(s); err != nil {
		return fmt.Errorf("parsing settings environment: %w", err)
	}
	return nil
}

// Save saves settings to disk
func (s *Settings) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return s.SaveFile(path)
}

// SaveFile writes settings to path
func (s *Settings) SaveFile(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Validate checks value ranges
func (s *Settings) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Clone creates a copy of the settings
func (s *Settings) Clone() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Create a new Settings struct with copied values (not the mutex)
	clone := &Settings{}
	clone.copySettingsFields(s)
	return clone
}

// copySettingsFields copies all fields from other to s, excluding the mutex
// The caller must hold the necessary locks on s and other (if other is shared)
func (s *Settings) copySettingsFields(other *Settings) {
	s.NightscoutURL = other.NightscoutURL
	s.APISecret = other.APISecret
	s.APIToken = other.APIToken
	s.UseToken = other.UseToken
	s.LogLevel = other.LogLevel
	s.LogFormat = other.LogFormat
	s.LookbackHours = other.LookbackHours
	s.BasalSchedulePath = other.BasalSchedulePath
	s.BatchConcurrency = other.BatchConcurrency
	s.ChartWidth = other.ChartWidth
	s.ChartHeight = other.ChartHeight
}

// IsConfigured returns true if a Nightscout site is set
func (s *Settings) IsConfigured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.NightscoutURL != ""
}
