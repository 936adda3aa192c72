package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"github.com/dgellow/authrelay/internal/log"
	"github.com/dgellow/authrelay/internal/sessiontoken"
	"github.com/dgellow/authrelay/internal/urlutil"
)

//go:embed templates/*.html
var templateFS embed.FS

// DeepLinkDelayMS is how long the desktop page waits before opening the app
const DeepLinkDelayMS = 1500

// DeepLinkTarget is the host and path of the app deep link
const DeepLinkTarget = "auth/callback"

var (
	desktopPageTemplate      = parsePage("desktop.html")
	accountPageTemplate      = parsePage("account.html")
	unconfiguredPageTemplate = parsePage("unconfigured.html")
	errorPageTemplate        = parsePage("error.html")
	homePageTemplate         = parsePage("home.html")
)

func parsePage(name string) *template.Template {
	return template.Must(template.New("layout.html").ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

// DesktopPageData represents the data for the deep-link handoff page
type DesktopPageData struct {
	Name     string
	Email    string
	DeepLink template.URL
	DelayMS  int
}

// AccountPageData represents the data for the web account view
type AccountPageData struct {
	Name    string
	Email   string
	Picture string
}

// ErrorPageData represents the data for a rejected request
type ErrorPageData struct {
	Title    string
	Message  string
	Detail   string
	RetryURL string
}

// Renderer produces the HTML surfaces of the relay
type Renderer struct {
	deepLinkScheme string
}

// NewRenderer creates a renderer for the given application URI scheme
func NewRenderer(deepLinkScheme string) *Renderer {
	return &Renderer{deepLinkScheme: deepLinkScheme}
}

// DeepLink builds <scheme>://auth/callback?token=<token>
func (r *Renderer) DeepLink(token string) string {
	return urlutil.AppLink(r.deepLinkScheme, DeepLinkTarget, url.Values{"token": {token}})
}

// DesktopPage renders the page that hands the token to the desktop app.
// The deep link is composed here and is the only value trusted as a URL.
func (r *Renderer) DesktopPage(w http.ResponseWriter, claims sessiontoken.Claims, token string) {
	w.Header().Set("Referrer-Policy", "no-referrer")
	r.render(w, http.StatusOK, desktopPageTemplate, DesktopPageData{
		Name:     claims.Name,
		Email:    claims.Email,
		DeepLink: template.URL(r.DeepLink(token)),
		DelayMS:  DeepLinkDelayMS,
	})
}

// AccountPage renders the signed-in account view
func (r *Renderer) AccountPage(w http.ResponseWriter, claims *sessiontoken.Claims) {
	r.render(w, http.StatusOK, accountPageTemplate, AccountPageData{
		Name:    claims.Name,
		Email:   claims.Email,
		Picture: claims.Picture,
	})
}

// UnconfiguredPage renders the notice shown when no provider is configured
func (r *Renderer) UnconfiguredPage(w http.ResponseWriter, status int) {
	r.render(w, status, unconfiguredPageTemplate, nil)
}

// ErrorPage renders a rejected request
func (r *Renderer) ErrorPage(w http.ResponseWriter, status int, data ErrorPageData) {
	r.render(w, status, errorPageTemplate, data)
}

// HomePage renders the built-in landing page
func (r *Renderer) HomePage(w http.ResponseWriter) {
	r.render(w, http.StatusOK, homePageTemplate, nil)
}

func (r *Renderer) render(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.LogErrorWithFields("render", "Failed to render template", map[string]any{
			"template": tmpl.Name(),
			"error":    err.Error(),
		})
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
