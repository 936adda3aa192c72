package config

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/dgellow/authrelay/internal/urlutil"
)

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// Provider kinds
const (
	ProviderAuthKit = "authkit"
	ProviderGoogle  = "google"
	ProviderOIDC    = "oidc"
)

// CallbackPath is where the identity provider sends the browser back to
const CallbackPath = "/auth/callback"

// Config is the resolved process configuration
type Config struct {
	Env            string `env:"AUTHRELAY_ENV" envDefault:"production" json:"env"`
	Addr           string `env:"AUTHRELAY_ADDR" envDefault:":8080" json:"addr"`
	BaseURL        string `env:"AUTHRELAY_BASE_URL" json:"baseUrl"`
	SessionSecret  Secret `env:"AUTHRELAY_SESSION_SECRET" json:"sessionSecret"`
	DeepLinkScheme string `env:"AUTHRELAY_DEEPLINK_SCHEME" envDefault:"authrelay" json:"deepLinkScheme"`
	StaticDir      string `env:"AUTHRELAY_STATIC_DIR" json:"staticDir,omitempty"`

	Provider ProviderConfig `json:"provider"`

	MetricsEnabled     bool `env:"AUTHRELAY_METRICS_ENABLED" envDefault:"true" json:"metricsEnabled"`
	RateLimitPerMinute int  `env:"AUTHRELAY_RATE_LIMIT_PER_MINUTE" envDefault:"60" json:"rateLimitPerMinute"`
	RateLimitBurst     int  `env:"AUTHRELAY_RATE_LIMIT_BURST" envDefault:"20" json:"rateLimitBurst"`

	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Only enable behind a proxy that overwrites them.
	TrustProxyHeaders bool `env:"AUTHRELAY_TRUST_PROXY_HEADERS" json:"trustProxyHeaders"`

	LogLevel  string `env:"AUTHRELAY_LOG_LEVEL" envDefault:"info" json:"logLevel"`
	LogFormat string `env:"AUTHRELAY_LOG_FORMAT" envDefault:"text" json:"logFormat"`
}

// ProviderConfig describes the single upstream identity provider.
// Endpoint fields override the defaults of the selected kind.
type ProviderConfig struct {
	Kind         string        `env:"AUTHRELAY_PROVIDER" envDefault:"authkit" json:"kind"`
	ClientID     string        `env:"AUTHRELAY_PROVIDER_CLIENT_ID" json:"clientId"`
	ClientSecret Secret        `env:"AUTHRELAY_PROVIDER_CLIENT_SECRET" json:"clientSecret"`
	AuthURL      string        `env:"AUTHRELAY_PROVIDER_AUTH_URL" json:"authUrl,omitempty"`
	TokenURL     string        `env:"AUTHRELAY_PROVIDER_TOKEN_URL" json:"tokenUrl,omitempty"`
	UserInfoURL  string        `env:"AUTHRELAY_PROVIDER_USERINFO_URL" json:"userInfoUrl,omitempty"`
	DiscoveryURL string        `env:"AUTHRELAY_PROVIDER_DISCOVERY_URL" json:"discoveryUrl,omitempty"`
	Scopes       []string      `env:"AUTHRELAY_PROVIDER_SCOPES" envSeparator:"," json:"scopes,omitempty"`
	Timeout      time.Duration `env:"AUTHRELAY_PROVIDER_TIMEOUT" envDefault:"15s" json:"timeout"`
}

// Configured reports whether enough credentials are present to talk to the provider
func (p ProviderConfig) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// IsProduction reports whether production security requirements apply.
// Anything other than an explicit development value is production.
func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "development", "dev":
		return false
	default:
		return true
	}
}

// RedirectURI is the callback URL registered with the identity provider
func (c Config) RedirectURI() string {
	uri, err := urlutil.JoinPath(c.BaseURL, CallbackPath)
	if err != nil {
		return strings.TrimRight(c.BaseURL, "/") + CallbackPath
	}
	return uri
}
