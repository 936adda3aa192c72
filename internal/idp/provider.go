package idp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/dgellow/authrelay/internal/ioutil"
)

// ErrUnconfigured is returned when the provider credentials are missing
var ErrUnconfigured = errors.New("identity provider is not configured")

// maxUserInfoBytes bounds provider JSON responses
const maxUserInfoBytes = 1 << 20

// Identity is what the upstream provider asserts about the signed-in user.
// Every field is provider controlled and therefore untrusted.
type Identity struct {
	ProviderType string `json:"provider_type"`
	Subject      string `json:"sub"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Picture      string `json:"picture,omitempty"`
}

// Provider abstracts identity provider operations.
type Provider interface {
	// Type returns the provider type identifier (e.g., "authkit", "google", "oidc").
	Type() string

	// AuthURL generates the hosted authorization URL for the OAuth flow.
	AuthURL(state string) string

	// ExchangeCode exchanges an authorization code for tokens.
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)

	// UserInfo resolves the identity behind an exchanged token.
	UserInfo(ctx context.Context, token *oauth2.Token) (*Identity, error)
}

// Authenticate runs the exchange and identity lookup as one step
func Authenticate(ctx context.Context, p Provider, code string) (*Identity, error) {
	token, err := p.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	identity, err := p.UserInfo(ctx, token)
	if err != nil {
		return nil, err
	}
	if identity.Subject == "" {
		return nil, fmt.Errorf("provider %s returned an identity without subject", p.Type())
	}
	return identity, nil
}

// fetchUserInfo GETs a userinfo endpoint with the token and decodes the JSON body
func fetchUserInfo(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, userInfoURL string, v any) error {
	client := cfg.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build user info request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to get user info: status %d: %s", resp.StatusCode, ioutil.ReadLimited(resp.Body, ioutil.ErrorBodyLimit))
	}

	if err := ioutil.DecodeJSONLimited(resp.Body, maxUserInfoBytes, v); err != nil {
		return fmt.Errorf("failed to decode user info: %w", err)
	}
	return nil
}
