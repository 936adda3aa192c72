package cookie

import (
	"net/http"
	"time"

	"github.com/dgellow/authrelay/internal/log"
)

// Cookie names used by authrelay
const (
	SessionCookie = "authrelay_session"
	NonceCookie   = "authrelay_nonce"
)

// Scopes and lifetimes
const (
	SessionPath   = "/"
	NoncePath     = "/auth/callback"
	SessionMaxAge = 30 * 24 * time.Hour
	NonceMaxAge   = 10 * time.Minute
)

// Jar builds the cookie directives of the relay. Secure is set on every
// cookie outside development.
type Jar struct {
	secure bool
}

// NewJar creates a jar. secure should be true in production.
func NewJar(secure bool) *Jar {
	return &Jar{secure: secure}
}

// Secure reports whether cookies carry the Secure attribute
func (j *Jar) Secure() bool {
	return j.secure
}

func (j *Jar) build(name, value, path string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	}
}

// Nonce returns the directive that stores the CSRF nonce for the callback
func (j *Jar) Nonce(value string) *http.Cookie {
	return j.build(NonceCookie, value, NoncePath, NonceMaxAge)
}

// Session returns the directive that stores the session token
func (j *Jar) Session(value string) *http.Cookie {
	return j.build(SessionCookie, value, SessionPath, SessionMaxAge)
}

// SetSession sets the session cookie on the response
func (j *Jar) SetSession(w http.ResponseWriter, value string) {
	http.SetCookie(w, j.Session(value))

	log.LogTraceWithFields("cookie", "Session cookie set", map[string]any{
		"maxAge":   SessionMaxAge.String(),
		"secure":   j.secure,
		"sameSite": "Lax",
	})
}

// Clear removes a cookie by setting MaxAge to -1. path must match the
// path the cookie was set with.
func (j *Jar) Clear(w http.ResponseWriter, name, path string) {
	c := j.build(name, "", path, 0)
	c.MaxAge = -1
	http.SetCookie(w, c)
}

// ClearSession removes the session cookie
func (j *Jar) ClearSession(w http.ResponseWriter) {
	j.Clear(w, SessionCookie, SessionPath)
	log.LogTraceWithFields("cookie", "Session cookie cleared", nil)
}

// ClearNonce removes the nonce cookie
func (j *Jar) ClearNonce(w http.ResponseWriter) {
	j.Clear(w, NonceCookie, NoncePath)
}

// Get retrieves a cookie value from the request
func Get(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

// GetSession retrieves the session cookie value
func GetSession(r *http.Request) (string, error) {
	return Get(r, SessionCookie)
}

// GetNonce retrieves the nonce cookie value
func GetNonce(r *http.Request) (string, error) {
	return Get(r, NonceCookie)
}
