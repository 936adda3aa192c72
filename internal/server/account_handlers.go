package server

import (
	"net/http"
	"strings"

	"github.com/dgellow/authrelay/internal/cookie"
	jsonwriter "github.com/dgellow/authrelay/internal/json"
	"github.com/dgellow/authrelay/internal/log"
	"github.com/dgellow/authrelay/internal/sessiontoken"
)

const bearerRealm = "authrelay"

// AccountHandlers serves the views that re-verify an existing session
type AccountHandlers struct {
	codec      *sessiontoken.Codec
	jar        *cookie.Jar
	renderer   *Renderer
	configured bool
}

// NewAccountHandlers creates account handlers. configured reports whether
// an identity provider is available to sign in with.
func NewAccountHandlers(codec *sessiontoken.Codec, jar *cookie.Jar, renderer *Renderer, configured bool) *AccountHandlers {
	return &AccountHandlers{
		codec:      codec,
		jar:        jar,
		renderer:   renderer,
		configured: configured,
	}
}

// AccountHandler renders the web account view for a valid session cookie
func (h *AccountHandlers) AccountHandler(w http.ResponseWriter, r *http.Request) {
	token, err := cookie.GetSession(r)
	if err == nil {
		claims, verr := h.codec.Verify(token)
		if verr == nil {
			h.renderer.AccountPage(w, claims)
			return
		}
		log.LogDebugWithFields("account", "Discarding invalid session cookie", nil)
		h.jar.ClearSession(w)
	}

	if !h.configured {
		h.renderer.UnconfiguredPage(w, http.StatusOK)
		return
	}
	http.Redirect(w, r, webLoginPath, http.StatusFound)
}

// MeHandler returns the claims of the presented session token
func (h *AccountHandlers) MeHandler(w http.ResponseWriter, r *http.Request) {
	token := sessionTokenFromRequest(r)
	if token == "" {
		jsonwriter.WriteUnauthorized(w, bearerRealm, "Missing session token")
		return
	}

	claims, err := h.codec.Verify(token)
	if err != nil {
		jsonwriter.WriteUnauthorized(w, bearerRealm, "Invalid or expired session token")
		return
	}

	_ = jsonwriter.Write(w, map[string]any{"user": claims})
}

// sessionTokenFromRequest prefers the Authorization header over the cookie
func sessionTokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	token, err := cookie.GetSession(r)
	if err != nil {
		return ""
	}
	return token
}

// NewHomeHandler serves staticDir when set, otherwise the built-in home page
func NewHomeHandler(staticDir string, renderer *Renderer) http.Handler {
	if staticDir != "" {
		return http.FileServer(http.Dir(staticDir))
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			jsonwriter.WriteNotFound(w, "Not found")
			return
		}
		renderer.HomePage(w)
	})
}
