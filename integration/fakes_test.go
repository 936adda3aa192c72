package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

const fakeAuthCode = "test-auth-code"

// FakeIDPServer is an OIDC identity provider that approves every sign-in
type FakeIDPServer struct {
	*httptest.Server

	mu            sync.Mutex
	user          map[string]any
	tokenRequests int
	denyNext      bool
}

// NewFakeIDPServer starts a provider that signs in user
func NewFakeIDPServer(user map[string]any) *FakeIDPServer {
	f := &FakeIDPServer{user: user}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", f.discovery)
	mux.HandleFunc("/authorize", f.authorize)
	mux.HandleFunc("/token", f.token)
	mux.HandleFunc("/userinfo", f.userinfo)

	f.Server = httptest.NewServer(mux)
	return f
}

// DiscoveryURL is the OIDC discovery document of the provider
func (f *FakeIDPServer) DiscoveryURL() string {
	return f.URL + "/.well-known/openid-configuration"
}

// DenyNext makes the next authorization redirect back with access_denied
func (f *FakeIDPServer) DenyNext() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.denyNext = true
}

// TokenRequests returns how many code exchanges the provider has seen
func (f *FakeIDPServer) TokenRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenRequests
}

func (f *FakeIDPServer) discovery(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"issuer":                 f.URL,
		"authorization_endpoint": f.URL + "/authorize",
		"token_endpoint":         f.URL + "/token",
		"userinfo_endpoint":      f.URL + "/userinfo",
	})
}

func (f *FakeIDPServer) authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	redirectURI, err := url.Parse(q.Get("redirect_uri"))
	if err != nil || redirectURI.Host == "" {
		http.Error(w, "invalid redirect_uri", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	deny := f.denyNext
	f.denyNext = false
	f.mu.Unlock()

	params := url.Values{"state": {q.Get("state")}}
	if deny {
		params.Set("error", "access_denied")
		params.Set("error_description", "The user cancelled sign-in")
	} else {
		params.Set("code", fakeAuthCode)
	}
	redirectURI.RawQuery = params.Encode()

	http.Redirect(w, r, redirectURI.String(), http.StatusFound)
}

func (f *FakeIDPServer) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.tokenRequests++
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.FormValue("code") != fakeAuthCode {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":             "invalid_grant",
			"error_description": "Invalid authorization code",
		})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": "test-access-token",
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (f *FakeIDPServer) userinfo(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer test-access-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	user := f.user
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(user)
}
