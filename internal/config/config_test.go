package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/project-scout/internal/match"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `{
		"database_url": "postgres://localhost/scout",
		"api_key": "test-key",
		"port": 9090,
		"time_range_days": 14,
		"match_threshold": 0.85,
		"distance_model": "cosine"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/scout", cfg.DatabaseURL)
	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 14, cfg.TimeRangeDays)
	assert.Equal(t, 0.85, cfg.MatchThreshold)
	assert.Equal(t, match.ModelCosine, cfg.DistanceModel)
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `{"database_url": "postgres://localhost/scout"}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, 7, cfg.TimeRangeDays)
	assert.Equal(t, 2, cfg.OutsideRangeFactor)
	assert.Equal(t, match.DefaultThreshold, cfg.MatchThreshold)
	assert.Equal(t, match.ModelEuclidean, cfg.DistanceModel)
	assert.Equal(t, match.DefaultTopMissing, cfg.TopMissing)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"database_url": "postgres://file/db", "port": 9090}`)
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL)
	assert.Equal(t, 7070, cfg.Port)
}

func TestLoad_EmptyPathUsesEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL)
	assert.Equal(t, "env-key", cfg.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.json")
	assert.Error(t, err)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := writeConfig(t, `{not json`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{DatabaseURL: "postgres://localhost/scout"}
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }, "database_url"},
		{"port out of range", func(c *Config) { c.Port = 70000 }, "port"},
		{"negative time range", func(c *Config) { c.TimeRangeDays = -1 }, "time_range_days"},
		{"threshold above one", func(c *Config) { c.MatchThreshold = 1.5 }, "match_threshold"},
		{"unknown distance model", func(c *Config) { c.DistanceModel = "manhattan" }, "distance_model"},
		{"missing sites file", func(c *Config) { c.SitesFile = "/nonexistent/sites.json" }, "sites file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
