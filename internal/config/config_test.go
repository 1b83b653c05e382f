package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	require.NoError(t, err)
	return cfg
}

func TestDefaultsProduceValidConfig(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, 3, cfg.Recovery.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Recovery.BackoffBase)
	assert.Equal(t, int64(3), cfg.Browser.SessionCap)
	assert.Equal(t, int64(512*1024), cfg.Extraction.MinFileSize)
	assert.NotEmpty(t, cfg.Extraction.SupportedDomains)
	assert.NotEmpty(t, cfg.Extraction.CDNPatterns)
	assert.True(t, cfg.Stealth.CanvasNoise)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero attempts", func(c *Config) { c.Recovery.MaxAttempts = 0 }},
		{"shrinking backoff", func(c *Config) { c.Recovery.BackoffMultiplier = 0.5 }},
		{"zero session cap", func(c *Config) { c.Browser.SessionCap = 0 }},
		{"negative layer timeout", func(c *Config) { c.Extraction.JSLayerTimeout = -time.Second }},
		{"no domains", func(c *Config) { c.Extraction.SupportedDomains = nil }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("TERALINK_RECOVERY_MAX_ATTEMPTS", "5")

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("TERALINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Recovery.MaxAttempts)
}

func TestGetFallsBackToDefaults(t *testing.T) {
	Set(nil)
	cfg := Get()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())
}
