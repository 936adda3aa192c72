package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/dgellow/authrelay/internal/cookie"
	"github.com/dgellow/authrelay/internal/idp"
	"github.com/dgellow/authrelay/internal/sessiontoken"
)

const testScheme = "authrelay"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// mockIDPProvider is a mock IDP provider for testing
type mockIDPProvider struct {
	identity    idp.Identity
	exchangeErr error
	block       bool

	exchangeCalls atomic.Int32
}

func newMockIDPProvider() *mockIDPProvider {
	return &mockIDPProvider{
		identity: idp.Identity{
			ProviderType: "mock",
			Subject:      "u1",
			Email:        "a@b.com",
			FirstName:    "Test",
			LastName:     "User",
		},
	}
}

func (m *mockIDPProvider) Type() string {
	return "mock"
}

func (m *mockIDPProvider) AuthURL(state string) string {
	return "https://idp.example.com/authorize?" + url.Values{"state": {state}}.Encode()
}

func (m *mockIDPProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	m.exchangeCalls.Add(1)
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.exchangeErr != nil {
		return nil, m.exchangeErr
	}
	return &oauth2.Token{AccessToken: "test-token"}, nil
}

func (m *mockIDPProvider) UserInfo(ctx context.Context, token *oauth2.Token) (*idp.Identity, error) {
	identity := m.identity
	return &identity, nil
}

type testEnv struct {
	provider *mockIDPProvider
	codec    *sessiontoken.Codec
	auth     *AuthHandlers
	account  *AccountHandlers
	router   http.Handler
}

type envOption func(*envSettings)

type envSettings struct {
	production bool
	timeout    time.Duration
}

func withDevelopment() envOption {
	return func(s *envSettings) { s.production = false }
}

func withTimeout(d time.Duration) envOption {
	return func(s *envSettings) { s.timeout = d }
}

// newTestEnv wires handlers around provider. A nil provider is passed as an
// untyped nil so the handlers see "unconfigured".
func newTestEnv(t *testing.T, provider *mockIDPProvider, opts ...envOption) *testEnv {
	t.Helper()

	settings := envSettings{production: true, timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&settings)
	}

	codec, err := sessiontoken.NewCodec(testSecret)
	require.NoError(t, err)

	jar := cookie.NewJar(settings.production)
	renderer := NewRenderer(testScheme)

	var p idp.Provider
	if provider != nil {
		p = provider
	}

	auth := NewAuthHandlers(p, codec, jar, renderer, nil, settings.timeout, !settings.production)
	account := NewAccountHandlers(codec, jar, renderer, p != nil)

	return &testEnv{
		provider: provider,
		codec:    codec,
		auth:     auth,
		account:  account,
		router: NewRouter(RouterConfig{
			Auth:    auth,
			Account: account,
			Home:    NewHomeHandler("", renderer),
		}),
	}
}

func (e *testEnv) do(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

// startLogin runs /auth/login and returns the state sent to the provider
// and the nonce cookie set on the browser
func (e *testEnv) startLogin(t *testing.T, query string) (string, *http.Cookie) {
	t.Helper()

	w := e.do(httptest.NewRequest(http.MethodGet, "/auth/login?"+query, nil))
	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)

	nonce := findCookie(w, cookie.NonceCookie)
	require.NotNil(t, nonce)

	return location.Query().Get("state"), nonce
}

func callbackRequest(query url.Values, cookies ...*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/auth/callback?"+query.Encode(), nil)
	for _, c := range cookies {
		r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return r
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var deepLinkHref = regexp.MustCompile(`href="(` + testScheme + `://auth/callback\?token=[^"]+)"`)

// deepLinkToken extracts the token from the manual link of the desktop page
func deepLinkToken(t *testing.T, body string) (string, string) {
	t.Helper()

	m := deepLinkHref.FindStringSubmatch(body)
	require.Len(t, m, 2, "deep link not found in body")

	link, err := url.Parse(m[1])
	require.NoError(t, err)
	return m[1], link.Query().Get("token")
}
