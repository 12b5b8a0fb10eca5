// Package config provides configuration loading and validation for the
// server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jonathan/project-scout/internal/match"
	"github.com/jonathan/project-scout/internal/scan"
)

// Default values applied by ApplyDefaults.
const (
	DefaultPort = 8080
)

// Config represents the application configuration. Values can be loaded from
// a JSON file; environment variables override file values.
type Config struct {
	// Paths
	SitesFile  string `json:"sites_file,omitempty"`  // Path to the site descriptor JSON file
	SchemasDir string `json:"schemas_dir,omitempty"` // Directory holding JSON schemas

	// Services
	DatabaseURL     string `json:"database_url,omitempty"`     // PostgreSQL connection URL
	APIKey          string `json:"api_key,omitempty"`          // Gemini API key
	ExtractionModel string `json:"extraction_model,omitempty"` // Gemini model for detail extraction
	Port            int    `json:"port,omitempty"`             // HTTP server port

	// Scanning
	TimeRangeDays      int `json:"time_range_days,omitempty"`      // How far back a scan looks
	OutsideRangeFactor int `json:"outside_range_factor,omitempty"` // Hard-stop multiple of the time range

	// Matching
	MatchThreshold float64 `json:"match_threshold,omitempty"` // Minimum embedding similarity
	DistanceModel  string  `json:"distance_model,omitempty"`  // "cosine" or "euclidean"
	TopMissing     int     `json:"top_missing,omitempty"`     // Missing-skill summary size

	// Logging
	JSONLogs bool `json:"json_logs,omitempty"` // Emit JSON logs instead of console
	Debug    bool `json:"debug,omitempty"`     // Enable debug logging
}

// Load reads configuration from a JSON file and applies environment
// overrides. An empty path skips the file and uses environment variables
// alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if !filepath.IsAbs(path) {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get current directory: %w", err)
			}
			path = filepath.Join(cwd, path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()
	return &cfg, nil
}

// applyEnv overrides file values with environment variables where set.
func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("SITES_FILE"); v != "" {
		c.SitesFile = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
}

// ApplyDefaults fills zero values with application defaults.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.TimeRangeDays == 0 {
		c.TimeRangeDays = scan.DefaultTimeRangeDays
	}
	if c.OutsideRangeFactor == 0 {
		c.OutsideRangeFactor = scan.DefaultOutsideRangeFactor
	}
	if c.MatchThreshold == 0 {
		c.MatchThreshold = match.DefaultThreshold
	}
	if c.DistanceModel == "" {
		c.DistanceModel = match.ModelEuclidean
	}
	if c.TopMissing == 0 {
		c.TopMissing = match.DefaultTopMissing
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: 'database_url' is required (or set DATABASE_URL)")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be in 1-65535, got %d", c.Port)
	}
	if c.TimeRangeDays < 0 {
		return fmt.Errorf("config error: 'time_range_days' must be non-negative")
	}
	if c.OutsideRangeFactor < 0 {
		return fmt.Errorf("config error: 'outside_range_factor' must be non-negative")
	}
	if c.MatchThreshold < 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("config error: 'match_threshold' must be in 0-1, got %g", c.MatchThreshold)
	}
	if c.DistanceModel != match.ModelCosine && c.DistanceModel != match.ModelEuclidean {
		return fmt.Errorf("config error: 'distance_model' must be %q or %q, got %q",
			match.ModelCosine, match.ModelEuclidean, c.DistanceModel)
	}
	if c.SitesFile != "" {
		if _, err := os.Stat(c.SitesFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: sites file not found: %s", c.SitesFile)
		}
	}
	return nil
}
