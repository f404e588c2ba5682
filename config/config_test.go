package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinscribe/clinscribe/model"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, model.ProviderCloud, cfg.PreferredProvider())
	assert.Equal(t, 120*time.Second, cfg.Providers.Timeout)
	assert.Equal(t, 10, cfg.Quota.UserDailyLimit)
	assert.Equal(t, 200, cfg.Quota.AdminDailyLimit)
	assert.True(t, cfg.Quota.FailOpen)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
providers:
  preferred: selfhosted
  timeout: 30s
quota:
  user_daily_limit: 5
  fail_open: false
cache:
  ttl: 1h
tiers:
  premium:
    model: custom-pro
    temperature: 0.1
    max_tokens: 2048
    thinking_budget: 512
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, model.ProviderSelfHosted, cfg.PreferredProvider())
	assert.Equal(t, 30*time.Second, cfg.Providers.Timeout)
	assert.Equal(t, 5, cfg.Quota.UserDailyLimit)
	assert.False(t, cfg.Quota.FailOpen)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)

	// Values absent from the file keep their defaults.
	assert.Equal(t, 200, cfg.Quota.AdminDailyLimit)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)

	tiers := cfg.TierParams()
	require.Contains(t, tiers, model.TierPremium)
	assert.Equal(t, "custom-pro", tiers[model.TierPremium].Model)
	assert.Equal(t, 512, tiers[model.TierPremium].ThinkingBudget)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
providers:
  cloud:
    api_key: from-file
`)

	t.Setenv(EnvCloudAPIKey, "from-env")
	t.Setenv(EnvNATSURL, "nats://localhost:4222")
	t.Setenv(EnvSelfHostedURL, "https://llm.internal.example")
	t.Setenv(EnvGatewayClientID, "gw-id")
	t.Setenv(EnvGatewayClientSecret, "gw-secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Providers.Cloud.APIKey)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "https://llm.internal.example", cfg.Providers.SelfHosted.BaseURL)
	assert.Equal(t, "gw-id", cfg.Providers.SelfHosted.GatewayClientID)
	assert.Equal(t, "gw-secret", cfg.Providers.SelfHosted.GatewayClientSecret)
}

func TestLoad_UnknownPreferredProvider(t *testing.T) {
	path := writeConfig(t, `
providers:
  preferred: azure
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "azure")
}

func TestLoad_UnknownTierName(t *testing.T) {
	path := writeConfig(t, `
tiers:
  gold:
    model: never-used
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gold")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "providers: [not a mapping")

	_, err := Load(path)
	assert.Error(t, err)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
