package idp

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/dgellow/authrelay/internal/emailutil"
)

const (
	authKitDefaultAuthURL  = "https://api.workos.com/user_management/authorize"
	authKitDefaultTokenURL = "https://api.workos.com/user_management/authenticate"
)

// AuthKitConfig configures a hosted AuthKit style provider.
type AuthKitConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// Optional endpoint overrides
	AuthorizationURL string
	TokenURL         string
}

// AuthKitProvider talks to a hosted AuthKit style user management API.
// The authenticate response carries the user object next to the tokens,
// so no userinfo round trip is needed.
type AuthKitProvider struct {
	config oauth2.Config
}

// NewAuthKitProvider creates a new AuthKit provider.
func NewAuthKitProvider(cfg AuthKitConfig) *AuthKitProvider {
	authURL := cfg.AuthorizationURL
	if authURL == "" {
		authURL = authKitDefaultAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = authKitDefaultTokenURL
	}

	return &AuthKitProvider{
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// Type returns the provider type.
func (p *AuthKitProvider) Type() string {
	return "authkit"
}

// AuthURL generates the authorization URL for the hosted sign-in page.
func (p *AuthKitProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("provider", "authkit"))
}

// ExchangeCode exchanges an authorization code for tokens.
func (p *AuthKitProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.config.Exchange(ctx, code)
}

// UserInfo reads the user object returned alongside the tokens.
func (p *AuthKitProvider) UserInfo(_ context.Context, token *oauth2.Token) (*Identity, error) {
	user, ok := token.Extra("user").(map[string]any)
	if !ok {
		return nil, fmt.Errorf("authenticate response has no user object")
	}

	identity := &Identity{
		ProviderType: p.Type(),
		Subject:      stringField(user, "id"),
		Email:        emailutil.Normalize(stringField(user, "email")),
		FirstName:    stringField(user, "first_name"),
		LastName:     stringField(user, "last_name"),
		Picture:      stringField(user, "profile_picture_url"),
	}
	if identity.Subject == "" {
		return nil, fmt.Errorf("authenticate response user has no id")
	}
	return identity, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
