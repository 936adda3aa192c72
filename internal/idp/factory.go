package idp

import (
	"context"
	"fmt"

	"github.com/dgellow/authrelay/internal/config"
)

// NewProvider creates a Provider based on the ProviderConfig. It returns
// ErrUnconfigured when the client credentials are missing.
func NewProvider(ctx context.Context, cfg config.ProviderConfig, redirectURI string) (Provider, error) {
	if !cfg.Configured() {
		return nil, ErrUnconfigured
	}

	switch cfg.Kind {
	case config.ProviderAuthKit:
		return NewAuthKitProvider(AuthKitConfig{
			ClientID:         cfg.ClientID,
			ClientSecret:     string(cfg.ClientSecret),
			RedirectURI:      redirectURI,
			AuthorizationURL: cfg.AuthURL,
			TokenURL:         cfg.TokenURL,
		}), nil

	case config.ProviderGoogle:
		return NewGoogleProvider(
			cfg.ClientID,
			string(cfg.ClientSecret),
			redirectURI,
			cfg.UserInfoURL,
		), nil

	case config.ProviderOIDC:
		return NewOIDCProvider(ctx, OIDCConfig{
			DiscoveryURL:     cfg.DiscoveryURL,
			AuthorizationURL: cfg.AuthURL,
			TokenURL:         cfg.TokenURL,
			UserInfoURL:      cfg.UserInfoURL,
			ClientID:         cfg.ClientID,
			ClientSecret:     string(cfg.ClientSecret),
			RedirectURI:      redirectURI,
			Scopes:           cfg.Scopes,
		})

	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Kind)
	}
}
