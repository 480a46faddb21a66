package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("https://api.example.com")

	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.NotNil(t, cfg.Authenticator)
	assert.False(t, cfg.Retry.enabled(), "retries must be disabled by default")
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("VELOTEST_BASE_URL", "https://api.example.com")
	t.Setenv("VELOTEST_USER_AGENT", "my-app/2.0")
	t.Setenv("VELOTEST_TIMEOUT", "5s")
	t.Setenv("VELOTEST_RATE_LIMIT", "2.5")
	t.Setenv("VELOTEST_RATE_BURST", "4")
	t.Setenv("VELOTEST_MAX_RETRIES", "2")

	cfg, err := ConfigFromEnv("VELOTEST")
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, "my-app/2.0", cfg.UserAgent)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, 4, cfg.RateBurst)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.True(t, cfg.Retry.RetryServerErrors,
		"env-enabled retry should use the default policy shape")
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("VELOTEST2_BASE_URL", "https://api.example.com")

	cfg, err := ConfigFromEnv("VELOTEST2")
	require.NoError(t, err)

	assert.Equal(t, "velo/1.0", cfg.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Nil(t, cfg.Redis)
	assert.False(t, cfg.Retry.enabled())
}

func TestConfigFromEnv_MissingBaseURL(t *testing.T) {
	_, err := ConfigFromEnv("VELOUNSET")
	require.Error(t, err)
}
