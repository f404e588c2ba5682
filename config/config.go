// Package config provides configuration loading for clinscribe.
// Values layer in precedence order: built-in defaults, an optional YAML
// file, then environment variables. Provider credentials normally arrive
// via the environment; the file covers everything else.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clinscribe/clinscribe/model"
)

// Environment variable names for provider credentials and endpoints.
const (
	EnvNATSURL             = "CLINSCRIBE_NATS_URL"
	EnvCloudAPIKey         = "CLINSCRIBE_CLOUD_API_KEY"
	EnvCloudBaseURL        = "CLINSCRIBE_CLOUD_BASE_URL"
	EnvSelfHostedURL       = "CLINSCRIBE_SELFHOSTED_URL"
	EnvSelfHostedModel     = "CLINSCRIBE_SELFHOSTED_MODEL"
	EnvGatewayClientID     = "CLINSCRIBE_GATEWAY_CLIENT_ID"
	EnvGatewayClientSecret = "CLINSCRIBE_GATEWAY_CLIENT_SECRET"
)

// Config is the complete clinscribe configuration.
type Config struct {
	NATS      NATSConfig              `yaml:"nats"`
	Providers ProvidersConfig         `yaml:"providers"`
	Quota     QuotaConfig             `yaml:"quota"`
	Cache     CacheConfig             `yaml:"cache"`
	Tiers     map[string]model.Params `yaml:"tiers"`
	HTTP      HTTPConfig              `yaml:"http"`
}

// NATSConfig configures the connection to the keyed store backend.
type NATSConfig struct {
	// URL is the NATS server URL. Empty runs with in-memory stores,
	// which keeps the one-shot CLI usable without infrastructure.
	URL string `yaml:"url"`
}

// ProvidersConfig configures the generation backends.
type ProvidersConfig struct {
	// Preferred is the provider attempted first ("cloud" or "selfhosted").
	Preferred string `yaml:"preferred"`

	// Timeout bounds a single provider call.
	Timeout time.Duration `yaml:"timeout"`

	Cloud      CloudProviderConfig      `yaml:"cloud"`
	SelfHosted SelfHostedProviderConfig `yaml:"selfhosted"`
}

// CloudProviderConfig holds hosted API settings.
type CloudProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// SelfHostedProviderConfig holds settings for the OpenAI-compatible server.
type SelfHostedProviderConfig struct {
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	GatewayClientID     string `yaml:"gateway_client_id"`
	GatewayClientSecret string `yaml:"gateway_client_secret"`
}

// QuotaConfig configures premium usage limits.
type QuotaConfig struct {
	UserDailyLimit  int `yaml:"user_daily_limit"`
	AdminDailyLimit int `yaml:"admin_daily_limit"`

	// FailOpen permits premium when the counter store is unreachable.
	// Flip per deployment to favor strict enforcement over availability.
	FailOpen bool `yaml:"fail_open"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Providers: ProvidersConfig{
			Preferred: model.ProviderCloud.String(),
			Timeout:   120 * time.Second,
		},
		Quota: QuotaConfig{
			UserDailyLimit:  10,
			AdminDailyLimit: 200,
			FailOpen:        true,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load builds the configuration: defaults, then the optional YAML file at
// path, then environment overrides. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvNATSURL); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv(EnvCloudAPIKey); v != "" {
		c.Providers.Cloud.APIKey = v
	}
	if v := os.Getenv(EnvCloudBaseURL); v != "" {
		c.Providers.Cloud.BaseURL = v
	}
	if v := os.Getenv(EnvSelfHostedURL); v != "" {
		c.Providers.SelfHosted.BaseURL = v
	}
	if v := os.Getenv(EnvSelfHostedModel); v != "" {
		c.Providers.SelfHosted.Model = v
	}
	if v := os.Getenv(EnvGatewayClientID); v != "" {
		c.Providers.SelfHosted.GatewayClientID = v
	}
	if v := os.Getenv(EnvGatewayClientSecret); v != "" {
		c.Providers.SelfHosted.GatewayClientSecret = v
	}
}

// validate rejects values that cannot be acted on.
func (c *Config) validate() error {
	if model.ParseProvider(c.Providers.Preferred) == "" {
		return fmt.Errorf("unknown preferred provider %q", c.Providers.Preferred)
	}
	for name := range c.Tiers {
		if model.ParseTier(name) == "" {
			return fmt.Errorf("unknown tier %q in tiers config", name)
		}
	}
	return nil
}

// PreferredProvider returns the validated preferred provider.
func (c *Config) PreferredProvider() model.Provider {
	return model.ParseProvider(c.Providers.Preferred)
}

// TierParams converts the tier override map to typed keys.
func (c *Config) TierParams() map[model.Tier]model.Params {
	params := make(map[model.Tier]model.Params, len(c.Tiers))
	for name, p := range c.Tiers {
		if t := model.ParseTier(name); t != "" {
			params[t] = p
		}
	}
	return params
}
