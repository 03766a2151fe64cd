package config

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"test config is valid", func(c *Config) {}, ""},
		{"blank data file", func(c *Config) { c.DataFile = "  " }, "DATA_FILE"},
		{"zero minimum withdrawal", func(c *Config) { c.MinWithdrawalCents = 0 }, "MIN_WITHDRAWAL_CENTS"},
		{"negative trial", func(c *Config) { c.TrialDuration = -time.Hour }, "TRIAL_DURATION"},
		{"zero plan", func(c *Config) { c.PlanDuration = 0 }, "PLAN_DURATION"},
		{"zero sweep interval", func(c *Config) { c.PlanSweepInterval = 0 }, "PLAN_SWEEP_INTERVAL"},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewTestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("DATA_FILE", "/tmp/shop.json")
	t.Setenv("MIN_WITHDRAWAL_CENTS", "2500")
	t.Setenv("PLAN_DURATION", "168h")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/shop.json", cfg.DataFile)
	assert.Equal(t, int64(2500), cfg.MinWithdrawalCents)
	assert.Equal(t, 7*24*time.Hour, cfg.PlanDuration)
	assert.Equal(t, 72*time.Hour, cfg.TrialDuration)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_RejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("MIN_WITHDRAWAL_CENTS", "0")

	_, err := load()
	assert.ErrorContains(t, err, "MIN_WITHDRAWAL_CENTS")
}

func TestConfigureLogging(t *testing.T) {
	defer func() {
		log.SetLevel(log.InfoLevel)
		log.SetFormatter(&log.TextFormatter{})
	}()

	cfg := NewTestConfig()
	cfg.LogLevel = "debug"
	cfg.LogFormat = "json"
	require.NoError(t, cfg.ConfigureLogging())
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	cfg.LogLevel = "loud"
	assert.ErrorContains(t, cfg.ConfigureLogging(), "LOG_LEVEL")
}

func TestSetOverridesGet(t *testing.T) {
	cfg := NewTestConfig()
	Set(cfg)
	assert.Same(t, cfg, Get())
}
