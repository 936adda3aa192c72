package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dgellow/authrelay/internal/cookie"
	"github.com/dgellow/authrelay/internal/flow"
	"github.com/dgellow/authrelay/internal/idp"
	"github.com/dgellow/authrelay/internal/log"
	"github.com/dgellow/authrelay/internal/metrics"
	"github.com/dgellow/authrelay/internal/sessiontoken"
)

// Callback outcomes, used as log and metric labels
const (
	OutcomeTokenIssued          = "token_issued"
	OutcomeRejectedNoCode       = "rejected_no_code"
	OutcomeRejectedCSRF         = "rejected_csrf"
	OutcomeRejectedExchange     = "rejected_exchange_failed"
	OutcomeProviderUnconfigured = "provider_unconfigured"
	OutcomeTokenIssueFailed     = "token_issue_failed"
)

const (
	defaultExchangeTimeout = 15 * time.Second

	accountPath  = "/account"
	loginPath    = "/auth/login"
	webLoginPath = loginPath + "?source=web"

	genericExchangeFailedMessage = "We couldn't complete sign-in with the identity provider. Please try again."
)

// AuthHandlers serves the sign-in round trip: login redirect, provider
// callback and logout
type AuthHandlers struct {
	provider        idp.Provider
	redirects       *flow.RedirectBuilder
	codec           *sessiontoken.Codec
	jar             *cookie.Jar
	renderer        *Renderer
	metrics         metrics.Recorder
	exchangeTimeout time.Duration
	showErrorDetail bool
}

// NewAuthHandlers creates new auth handlers with dependency injection.
// A nil provider puts the handlers in unconfigured mode.
func NewAuthHandlers(
	provider idp.Provider,
	codec *sessiontoken.Codec,
	jar *cookie.Jar,
	renderer *Renderer,
	recorder metrics.Recorder,
	exchangeTimeout time.Duration,
	showErrorDetail bool,
) *AuthHandlers {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	if exchangeTimeout <= 0 {
		exchangeTimeout = defaultExchangeTimeout
	}
	return &AuthHandlers{
		provider:        provider,
		redirects:       flow.NewRedirectBuilder(provider, jar),
		codec:           codec,
		jar:             jar,
		renderer:        renderer,
		metrics:         recorder,
		exchangeTimeout: exchangeTimeout,
		showErrorDetail: showErrorDetail,
	}
}

// LoginHandler starts a sign-in flow and redirects to the provider
func (h *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source := flow.ParseSource(q.Get("source"))

	authURL, nonceCookie, err := h.redirects.Build(q.Get("device_id"), string(source))
	if err != nil {
		if errors.Is(err, flow.ErrProviderUnconfigured) {
			log.LogWarnWithFields("auth", "Login requested but no identity provider is configured", nil)
			h.renderer.UnconfiguredPage(w, http.StatusServiceUnavailable)
			return
		}
		log.LogErrorWithFields("auth", "Failed to build authorization redirect", map[string]any{
			"error": err.Error(),
		})
		h.renderer.ErrorPage(w, http.StatusInternalServerError, ErrorPageData{
			Title:   "Sign-in failed",
			Message: "Something went wrong while starting sign-in. Please try again.",
		})
		return
	}

	http.SetCookie(w, nonceCookie)
	h.metrics.RecordLoginStarted(string(source))

	log.LogDebugWithFields("auth", "Redirecting to identity provider", map[string]any{
		"provider": h.provider.Type(),
		"source":   string(source),
	})

	http.Redirect(w, r, authURL, http.StatusFound)
}

// CallbackHandler completes the flow: it checks the CSRF nonce, exchanges
// the code, issues the session token and delivers it
func (h *AuthHandlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	code := q.Get("code")
	if code == "" {
		fields := map[string]any{}
		if providerErr := q.Get("error"); providerErr != "" {
			fields["provider_error"] = providerErr
			fields["provider_error_description"] = q.Get("error_description")
		}
		h.reject(w, OutcomeRejectedNoCode, http.StatusBadRequest, ErrorPageData{
			Title:    "Sign-in was not completed",
			Message:  "The identity provider did not return an authorization code.",
			RetryURL: loginPath,
		}, fields)
		return
	}

	state := flow.DefaultState()
	if raw := q.Get("state"); raw != "" {
		decoded, err := flow.DecodeState(raw)
		if err != nil {
			log.LogDebugWithFields("auth", "Ignoring malformed state", map[string]any{
				"error": err.Error(),
			})
		}
		state = decoded

		nonceCookie, _ := cookie.GetNonce(r)
		h.jar.ClearNonce(w)

		if err := flow.Consume(state.Nonce, nonceCookie); err != nil {
			h.reject(w, OutcomeRejectedCSRF, http.StatusForbidden, ErrorPageData{
				Title:    "Sign-in could not be verified",
				Message:  "This sign-in link expired or was opened in a different browser. Please start sign-in again.",
				RetryURL: retryURL(state.Source),
			}, map[string]any{
				"cookie_present": nonceCookie != "",
				"source":         string(state.Source),
			})
			return
		}
	}

	if h.provider == nil {
		h.metrics.RecordCallback(OutcomeProviderUnconfigured)
		log.LogWarnWithFields("auth", "Callback received but no identity provider is configured", nil)
		h.renderer.UnconfiguredPage(w, http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.exchangeTimeout)
	defer cancel()

	start := time.Now()
	identity, err := idp.Authenticate(ctx, h.provider, code)
	h.metrics.RecordExchange(time.Since(start), err)
	if err != nil {
		page := ErrorPageData{
			Title:    "Sign-in failed",
			Message:  genericExchangeFailedMessage,
			RetryURL: retryURL(state.Source),
		}
		if h.showErrorDetail {
			page.Detail = err.Error()
		}
		h.reject(w, OutcomeRejectedExchange, http.StatusInternalServerError, page, map[string]any{
			"provider": h.provider.Type(),
			"error":    err.Error(),
			"timeout":  errors.Is(err, context.DeadlineExceeded),
		})
		return
	}

	token, claims, err := h.codec.Issue(identity)
	if err != nil {
		h.reject(w, OutcomeTokenIssueFailed, http.StatusInternalServerError, ErrorPageData{
			Title:    "Sign-in failed",
			Message:  "Something went wrong while creating your session. Please try again.",
			RetryURL: retryURL(state.Source),
		}, map[string]any{"error": err.Error()})
		return
	}

	h.jar.SetSession(w, token)
	h.metrics.RecordCallback(OutcomeTokenIssued)

	fields := map[string]any{
		"sub":      claims.Subject,
		"provider": identity.ProviderType,
		"source":   string(state.Source),
	}
	if state.DeviceID != "" {
		fields["device_id"] = state.DeviceID
	}
	log.LogInfoWithFields("auth", "Session token issued", fields)

	if state.Source == flow.SourceWeb {
		http.Redirect(w, r, accountPath, http.StatusFound)
		return
	}
	h.renderer.DesktopPage(w, claims, token)
}

// LogoutHandler clears the session cookie and returns home
func (h *AuthHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.jar.ClearSession(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandlers) reject(w http.ResponseWriter, outcome string, status int, page ErrorPageData, fields map[string]any) {
	h.metrics.RecordCallback(outcome)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["outcome"] = outcome
	fields["status"] = status
	if status >= http.StatusInternalServerError {
		log.LogErrorWithFields("auth", "Callback rejected", fields)
	} else {
		log.LogWarnWithFields("auth", "Callback rejected", fields)
	}

	h.renderer.ErrorPage(w, status, page)
}

func retryURL(source flow.Source) string {
	if source == flow.SourceWeb {
		return webLoginPath
	}
	return loginPath
}
