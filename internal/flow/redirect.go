package flow

import (
	"fmt"
	"net/http"

	"github.com/dgellow/authrelay/internal/cookie"
	"github.com/dgellow/authrelay/internal/idp"
)

// ErrProviderUnconfigured is returned by Build when no provider is available
var ErrProviderUnconfigured = fmt.Errorf("cannot start sign-in: %w", idp.ErrUnconfigured)

// RedirectBuilder composes the provider authorization URL for a new flow
type RedirectBuilder struct {
	provider idp.Provider
	jar      *cookie.Jar
}

// NewRedirectBuilder creates a builder. A nil provider means the provider
// is unconfigured and every Build fails with ErrProviderUnconfigured.
func NewRedirectBuilder(provider idp.Provider, jar *cookie.Jar) *RedirectBuilder {
	return &RedirectBuilder{provider: provider, jar: jar}
}

// Build starts a flow for the given device and source. It returns the URL
// to redirect the browser to and the nonce cookie to set with the redirect.
func (b *RedirectBuilder) Build(deviceID, source string) (string, *http.Cookie, error) {
	if b.provider == nil {
		return "", nil, ErrProviderUnconfigured
	}

	nonce, nonceCookie, err := Begin(b.jar)
	if err != nil {
		return "", nil, err
	}

	state, err := State{
		Nonce:    nonce,
		DeviceID: normalizeDeviceID(deviceID),
		Source:   ParseSource(source),
	}.Encode()
	if err != nil {
		return "", nil, err
	}

	return b.provider.AuthURL(state), nonceCookie, nil
}
