package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeaders(t *testing.T) {
	idp := NewFakeIDPServer(testUser())
	defer idp.Close()
	relay := startRelay(t, idp, nil)
	browser := newBrowser(t, relay)

	resp, err := browser.Get(relay.URL + "/")
	require.NoError(t, err)
	_ = readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestRateLimit(t *testing.T) {
	idp := NewFakeIDPServer(testUser())
	defer idp.Close()
	relay := startRelay(t, idp, map[string]string{
		"AUTHRELAY_RATE_LIMIT_PER_MINUTE": "60",
		"AUTHRELAY_RATE_LIMIT_BURST":      "2",
	})
	browser := newBrowser(t, relay)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		status, _ := getMe(t, browser, relay.URL, "")
		statuses = append(statuses, status)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, statuses)

	resp, err := browser.Get(relay.URL + "/health")
	require.NoError(t, err)
	_ = readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionCookieAttributes(t *testing.T) {
	idp := NewFakeIDPServer(testUser())
	defer idp.Close()
	relay := startRelay(t, idp, nil)

	browser := noFollow(newBrowser(t, relay))
	resp, err := browser.Get(relay.URL + "/auth/login")
	require.NoError(t, err)
	_ = readBody(t, resp)

	var nonce *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "authrelay_nonce" {
			nonce = c
		}
	}
	require.NotNil(t, nonce)
	assert.True(t, nonce.Secure)
	assert.True(t, nonce.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, nonce.SameSite)
	assert.Equal(t, "/auth/callback", nonce.Path)
}
