package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/dgellow/authrelay/internal/urlutil"
)

// MinSessionSecretLength is the shortest session secret accepted in production
const MinSessionSecretLength = 32

// Load reads the configuration from the process environment and validates it
func Load() (Config, error) {
	return load(env.Options{})
}

// LoadFrom is like Load but reads from the given variables instead of the
// process environment
func LoadFrom(environ map[string]string) (Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Provider.Kind = strings.ToLower(strings.TrimSpace(cfg.Provider.Kind))
	cfg.DeepLinkScheme = strings.ToLower(strings.TrimSpace(cfg.DeepLinkScheme))

	if err := ValidateConfig(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateConfig validates the resolved configuration
func ValidateConfig(config *Config) error {
	switch strings.ToLower(config.Env) {
	case "production", "development", "dev":
	default:
		return fmt.Errorf("AUTHRELAY_ENV must be production or development (got %q)", config.Env)
	}

	if config.Addr == "" {
		return fmt.Errorf("AUTHRELAY_ADDR is required")
	}

	if config.BaseURL == "" {
		return fmt.Errorf("AUTHRELAY_BASE_URL is required")
	}
	u, err := url.Parse(config.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("AUTHRELAY_BASE_URL must be an absolute URL (got %q)", config.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("AUTHRELAY_BASE_URL must use http or https (got %q)", u.Scheme)
	}

	if config.IsProduction() && len(config.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("AUTHRELAY_SESSION_SECRET must be at least %d characters in production (got %d). Generate with: openssl rand -base64 32",
			MinSessionSecretLength, len(config.SessionSecret))
	}

	if !urlutil.ValidScheme(config.DeepLinkScheme) {
		return fmt.Errorf("AUTHRELAY_DEEPLINK_SCHEME %q is not a valid URI scheme", config.DeepLinkScheme)
	}
	if config.DeepLinkScheme == "http" || config.DeepLinkScheme == "https" {
		return fmt.Errorf("AUTHRELAY_DEEPLINK_SCHEME must be an application scheme, not %s", config.DeepLinkScheme)
	}

	if err := validateProviderConfig(&config.Provider); err != nil {
		return fmt.Errorf("provider config: %w", err)
	}

	if config.RateLimitPerMinute < 0 {
		return fmt.Errorf("AUTHRELAY_RATE_LIMIT_PER_MINUTE cannot be negative")
	}
	if config.RateLimitPerMinute > 0 && config.RateLimitBurst <= 0 {
		return fmt.Errorf("AUTHRELAY_RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}

	return nil
}

func validateProviderConfig(p *ProviderConfig) error {
	switch p.Kind {
	case ProviderAuthKit, ProviderGoogle, ProviderOIDC:
	default:
		return fmt.Errorf("unknown provider type: %s", p.Kind)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("AUTHRELAY_PROVIDER_TIMEOUT must be positive")
	}
	return nil
}
