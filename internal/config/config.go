// Package config loads application settings: compiled defaults, overlaid
// by settings.json in the data directory, overlaid by FINNDEALS_*
// environment variables. The CLI loads .env into the environment before
// calling Load, so .env entries behave like exported variables.
package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nordvik/finndeals/internal/finn"
)

const settingsFileName = "settings.json"

// Settings carries everything the CLI, fetcher and store need to run.
// Delay values are milliseconds; the cache TTL is minutes.
type Settings struct {
	DataDir         string `json:"data_dir"`
	ExportDir       string `json:"export_directory"`
	BaseURL         string `json:"base_url,omitempty"`
	Language        string `json:"language"`
	MaxResults      int    `json:"default_max_results"`
	DealThreshold   int    `json:"default_deal_threshold"`
	Workers         int    `json:"max_concurrent_requests"`
	RequestDelayMin int    `json:"request_delay_min_ms"`
	RequestDelayMax int    `json:"request_delay_max_ms"`
	CacheTTLMinutes int    `json:"cache_ttl_minutes"`
	AutoSaveResults bool   `json:"auto_save_results"`
	Notifications   bool   `json:"notifications_enabled"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Settings{
		DataDir:         filepath.Join(home, ".finndeals"),
		ExportDir:       filepath.Join(home, "Downloads"),
		Language:        "no",
		MaxResults:      50,
		DealThreshold:   70,
		Workers:         5,
		RequestDelayMin: 500,
		RequestDelayMax: 1500,
		CacheTTLMinutes: 15,
		AutoSaveResults: true,
	}
}

// Load resolves the data directory (argument, else FINNDEALS_DATA_DIR,
// else the default under the home directory), merges settings.json from
// inside it over the defaults, then applies environment overrides. An
// unreadable settings file is logged and skipped, never fatal.
func Load(dataDir string) Settings {
	s := Defaults()

	if dataDir == "" {
		dataDir = os.Getenv("FINNDEALS_DATA_DIR")
	}
	if dataDir != "" {
		s.DataDir = dataDir
	}

	path := filepath.Join(s.DataDir, settingsFileName)
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &s); err != nil {
			log.Printf("config: ignoring malformed %s: %v", settingsFileName, err)
			s = Defaults()
		}
		// The file lives inside the data dir, so it cannot relocate it.
		if dataDir != "" {
			s.DataDir = dataDir
		}
	} else if !os.IsNotExist(err) {
		log.Printf("config: ignoring unreadable %s: %v", settingsFileName, err)
	}

	applyEnv(&s)
	return s
}

// Save writes the settings to settings.json in the data directory,
// creating the directory when needed.
func Save(s Settings) error {
	if err := os.MkdirAll(s.DataDir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.DataDir, settingsFileName), data, 0644)
}

// FinnConfig maps the settings onto the fetcher's knobs.
func (s Settings) FinnConfig() finn.Config {
	cfg := finn.DefaultConfig()
	if s.BaseURL != "" {
		cfg.BaseURL = s.BaseURL
	}
	if s.Workers > 0 {
		cfg.Workers = s.Workers
	}
	if s.RequestDelayMin >= 0 {
		cfg.PageDelayMin = time.Duration(s.RequestDelayMin) * time.Millisecond
	}
	if s.RequestDelayMax >= s.RequestDelayMin {
		cfg.PageDelayMax = time.Duration(s.RequestDelayMax) * time.Millisecond
	}
	if s.CacheTTLMinutes > 0 {
		cfg.CacheTTL = time.Duration(s.CacheTTLMinutes) * time.Minute
	}
	return cfg
}

func applyEnv(s *Settings) {
	s.ExportDir = envString("FINNDEALS_EXPORT_DIR", s.ExportDir)
	s.BaseURL = envString("FINNDEALS_BASE_URL", s.BaseURL)
	s.Language = envString("FINNDEALS_LANGUAGE", s.Language)
	s.MaxResults = envInt("FINNDEALS_MAX_RESULTS", s.MaxResults)
	s.DealThreshold = envInt("FINNDEALS_DEAL_THRESHOLD", s.DealThreshold)
	s.Workers = envInt("FINNDEALS_WORKERS", s.Workers)
	s.RequestDelayMin = envInt("FINNDEALS_REQUEST_DELAY_MIN_MS", s.RequestDelayMin)
	s.RequestDelayMax = envInt("FINNDEALS_REQUEST_DELAY_MAX_MS", s.RequestDelayMax)
	s.CacheTTLMinutes = envInt("FINNDEALS_CACHE_TTL_MINUTES", s.CacheTTLMinutes)
	s.AutoSaveResults = envBool("FINNDEALS_AUTO_SAVE", s.AutoSaveResults)
	s.Notifications = envBool("FINNDEALS_NOTIFICATIONS", s.Notifications)
}

func envString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
		log.Printf("config: ignoring non-numeric %s=%q", key, val)
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
		log.Printf("config: ignoring non-boolean %s=%q", key, val)
	}
	return fallback
}
