package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "/var/lib/outreach-gate/outreach.db", cfg.DB.Path)
	assert.Equal(t, "UTC", cfg.Gate.Timezone)
	assert.Equal(t, 1024, cfg.Blocklist.CacheSize)
	assert.InDelta(t, 0.01, cfg.Blocklist.FPRate, 1e-9)
	assert.Empty(t, cfg.Seed.Dir)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoad_ValidOverrides(t *testing.T) {
	t.Setenv("OUTREACH_ENV", "dev")
	t.Setenv("OUTREACH_LOG_LEVEL", "debug")
	t.Setenv("OUTREACH_HTTP_PORT", "9090")
	t.Setenv("OUTREACH_DB_PATH", "/tmp/outreach.db")
	t.Setenv("OUTREACH_GATE_TIMEZONE", "Asia/Tokyo")
	t.Setenv("OUTREACH_BLOCKLIST_CACHE_SIZE", "0")
	t.Setenv("OUTREACH_BLOCKLIST_FP_RATE", "0.001")
	t.Setenv("OUTREACH_UNKNOWN_KEY", "ignored")
	seedDir := t.TempDir()
	t.Setenv("OUTREACH_SEED_DIR", seedDir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "/tmp/outreach.db", cfg.DB.Path)
	assert.Equal(t, "Asia/Tokyo", cfg.Gate.Timezone)
	assert.Equal(t, 0, cfg.Blocklist.CacheSize)
	assert.InDelta(t, 0.001, cfg.Blocklist.FPRate, 1e-9)
	assert.Equal(t, seedDir, cfg.Seed.Dir)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad env", "OUTREACH_ENV", "staging"},
		{"bad log level", "OUTREACH_LOG_LEVEL", "verbose"},
		{"port too high", "OUTREACH_HTTP_PORT", "70000"},
		{"unknown timezone", "OUTREACH_GATE_TIMEZONE", "Mars/Olympus"},
		{"negative cache", "OUTREACH_BLOCKLIST_CACHE_SIZE", "-1"},
		{"fp rate of one", "OUTREACH_BLOCKLIST_FP_RATE", "1"},
		{"missing seed dir", "OUTREACH_SEED_DIR", "/definitely/not/here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), "validation failed"), "got %v", err)
		})
	}
}

func TestLoad_UnmarshalError(t *testing.T) {
	t.Setenv("OUTREACH_HTTP_PORT", "not-a-number")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error unmarshalling config")
}

func TestLoad_LoaderErrors(t *testing.T) {
	t.Run("default loader", func(t *testing.T) {
		orig := defaultLoader
		defer func() { defaultLoader = orig }()
		defaultLoader = func(*koanf.Koanf) error { return errors.New("boom") }
		_, err := Load()
		assert.ErrorContains(t, err, "error loading default config")
	})
	t.Run("env loader", func(t *testing.T) {
		orig := envLoader
		defer func() { envLoader = orig }()
		envLoader = func(*koanf.Koanf) error { return errors.New("boom") }
		_, err := Load()
		assert.ErrorContains(t, err, "error loading env")
	})
	t.Run("register validation", func(t *testing.T) {
		orig := registerValidation
		defer func() { registerValidation = orig }()
		registerValidation = func(*validator.Validate) error { return errors.New("boom") }
		_, err := Load()
		assert.ErrorContains(t, err, "error registering validation")
	})
}
