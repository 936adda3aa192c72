package integration

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dgellow/authrelay/internal"
	"github.com/dgellow/authrelay/internal/config"
)

const testSessionSecret = "test-session-secret-32-bytes-ok!"

// startRelay runs the relay behind a TLS test server pointed at idp.
// Extra variables override the defaults.
func startRelay(t *testing.T, idp *FakeIDPServer, extra map[string]string) *httptest.Server {
	t.Helper()

	var handler http.Handler
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	environ := map[string]string{
		"AUTHRELAY_BASE_URL":               srv.URL,
		"AUTHRELAY_SESSION_SECRET":         testSessionSecret,
		"AUTHRELAY_DEEPLINK_SCHEME":        "myapp",
		"AUTHRELAY_PROVIDER":               "oidc",
		"AUTHRELAY_PROVIDER_CLIENT_ID":     "relay-client",
		"AUTHRELAY_PROVIDER_CLIENT_SECRET": "relay-secret",
		"AUTHRELAY_PROVIDER_DISCOVERY_URL": idp.DiscoveryURL(),
		"AUTHRELAY_RATE_LIMIT_PER_MINUTE":  "0",
	}
	for k, v := range extra {
		environ[k] = v
	}

	cfg, err := config.LoadFrom(environ)
	require.NoError(t, err)

	relay, err := internal.NewAuthRelay(context.Background(), cfg)
	require.NoError(t, err)
	handler = relay.Handler()

	return srv
}

// newBrowser returns a client with its own cookie jar that trusts srv
func newBrowser(t *testing.T, srv *httptest.Server) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &http.Client{
		Transport: srv.Client().Transport,
		Jar:       jar,
	}
}

// noFollow stops the client at the first redirect
func noFollow(client *http.Client) *http.Client {
	c := *client
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &c
}

var deepLinkPattern = regexp.MustCompile(`href="(myapp://auth/callback\?token=[^"]+)"`)
