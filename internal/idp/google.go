package idp

import (
	"context"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/dgellow/authrelay/internal/emailutil"
)

const googleDefaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleProvider implements the Provider interface for Google OAuth.
type GoogleProvider struct {
	config      oauth2.Config
	userInfoURL string
}

// googleUserInfoResponse represents Google's OpenID userinfo response.
type googleUserInfoResponse struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Name       string `json:"name"`
	Picture    string `json:"picture"`
}

// NewGoogleProvider creates a new Google OAuth provider. An empty
// userInfoURL selects Google's public endpoint.
func NewGoogleProvider(clientID, clientSecret, redirectURI, userInfoURL string) *GoogleProvider {
	if userInfoURL == "" {
		userInfoURL = googleDefaultUserInfoURL
	}
	return &GoogleProvider{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: userInfoURL,
	}
}

// Type returns the provider type.
func (p *GoogleProvider) Type() string {
	return "google"
}

// AuthURL generates the authorization URL.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// ExchangeCode exchanges an authorization code for tokens.
func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.config.Exchange(ctx, code)
}

// UserInfo fetches user information from Google's userinfo endpoint.
func (p *GoogleProvider) UserInfo(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	var googleUser googleUserInfoResponse
	if err := fetchUserInfo(ctx, &p.config, token, p.userInfoURL, &googleUser); err != nil {
		return nil, err
	}

	first := googleUser.GivenName
	if first == "" && googleUser.FamilyName == "" {
		first = googleUser.Name
	}

	return &Identity{
		ProviderType: p.Type(),
		Subject:      googleUser.Sub,
		Email:        emailutil.Normalize(googleUser.Email),
		FirstName:    first,
		LastName:     googleUser.FamilyName,
		Picture:      googleUser.Picture,
	}, nil
}
