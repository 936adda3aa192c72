package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	jsonwriter "github.com/dgellow/authrelay/internal/json"
	"github.com/dgellow/authrelay/internal/log"
)

// RouterConfig lists the pieces mounted by NewRouter. Nil optional fields
// leave their routes out.
type RouterConfig struct {
	Auth    *AuthHandlers
	Account *AccountHandlers
	Home    http.Handler

	// Optional
	Metrics           http.Handler
	RateLimiter       *RateLimiter
	TrustProxyHeaders bool
}

// NewRouter builds the HTTP surface of the relay
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(
		NewRequestIDMiddleware(),
		NewLoggerMiddleware("http"),
		NewRecoverMiddleware("http"),
		NewSecurityHeadersMiddleware(),
	)

	r.Method(http.MethodGet, "/health", NewHealthHandler())
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware())
		}

		r.Get("/auth/login", cfg.Auth.LoginHandler)
		r.Get("/auth/callback", cfg.Auth.CallbackHandler)
		r.Get("/auth/logout", cfg.Auth.LogoutHandler)
		r.Post("/auth/logout", cfg.Auth.LogoutHandler)
		r.Get("/api/me", cfg.Account.MeHandler)
	})

	r.Get("/account", cfg.Account.AccountHandler)

	home := cfg.Home
	if home == nil {
		home = http.NotFoundHandler()
	}
	r.Method(http.MethodGet, "/*", home)
	r.Method(http.MethodHead, "/*", home)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonwriter.WriteMethodNotAllowed(w, "Method not allowed")
	})

	return r
}

// HTTPServer manages the HTTP server lifecycle
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer creates a new HTTP server with the given handler and address
func NewHTTPServer(handler http.Handler, addr string) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// HealthHandler handles health check requests
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP implements http.Handler for health checks
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = jsonwriter.Write(w, map[string]string{"status": "ok"})
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	log.LogInfoWithFields("http", "HTTP server starting", map[string]any{
		"addr": h.server.Addr,
	})

	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve accepts connections on l until Stop is called
func (h *HTTPServer) Serve(l net.Listener) error {
	log.LogInfoWithFields("http", "HTTP server starting", map[string]any{
		"addr": l.Addr().String(),
	})

	if err := h.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	log.LogInfoWithFields("http", "HTTP server stopping", map[string]any{
		"addr": h.server.Addr,
	})

	if err := h.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.LogInfoWithFields("http", "HTTP server stopped", map[string]any{
		"addr": h.server.Addr,
	})
	return nil
}
