package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/dgellow/authrelay/internal/config"
	"github.com/dgellow/authrelay/internal/cookie"
	"github.com/dgellow/authrelay/internal/crypto"
	"github.com/dgellow/authrelay/internal/idp"
	"github.com/dgellow/authrelay/internal/log"
	"github.com/dgellow/authrelay/internal/metrics"
	"github.com/dgellow/authrelay/internal/server"
	"github.com/dgellow/authrelay/internal/sessiontoken"
)

// ShutdownTimeout bounds the graceful shutdown of the HTTP server
const ShutdownTimeout = 30 * time.Second

// AuthRelay represents the complete sign-in relay application
type AuthRelay struct {
	config      config.Config
	handler     http.Handler
	httpServer  *server.HTTPServer
	rateLimiter *server.RateLimiter
}

// NewAuthRelay creates the relay with all dependencies built
func NewAuthRelay(ctx context.Context, cfg config.Config) (*AuthRelay, error) {
	log.LogInfoWithFields("authrelay", "Building auth relay", map[string]any{
		"baseURL":  cfg.BaseURL,
		"env":      cfg.Env,
		"provider": cfg.Provider.Kind,
	})

	codec, err := setupCodec(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup session tokens: %w", err)
	}

	provider, err := setupProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup identity provider: %w", err)
	}

	var (
		recorder     metrics.Recorder = metrics.Noop{}
		metricsRoute http.Handler
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewCollector(reg)
		metricsRoute = metrics.Handler(reg)
	}

	var limiter *server.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = server.NewRateLimiter(server.PerMinute(cfg.RateLimitPerMinute, cfg.RateLimitBurst), recorder)
	}

	jar := cookie.NewJar(cfg.IsProduction())
	if !jar.Secure() {
		log.LogWarnWithFields("authrelay", "Cookies are sent without the Secure attribute", map[string]any{
			"env": cfg.Env,
		})
	}
	renderer := server.NewRenderer(cfg.DeepLinkScheme)

	handler := server.NewRouter(server.RouterConfig{
		Auth: server.NewAuthHandlers(
			provider,
			codec,
			jar,
			renderer,
			recorder,
			cfg.Provider.Timeout,
			!cfg.IsProduction(),
		),
		Account:           server.NewAccountHandlers(codec, jar, renderer, provider != nil),
		Home:              server.NewHomeHandler(cfg.StaticDir, renderer),
		Metrics:           metricsRoute,
		RateLimiter:       limiter,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	return &AuthRelay{
		config:      cfg,
		handler:     handler,
		httpServer:  server.NewHTTPServer(handler, cfg.Addr),
		rateLimiter: limiter,
	}, nil
}

// Handler returns the HTTP surface of the relay
func (a *AuthRelay) Handler() http.Handler {
	return a.handler
}

// Run listens on the configured address until SIGINT or SIGTERM
func (a *AuthRelay) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.run(ctx, a.httpServer.Start)
}

// Serve accepts connections on l until ctx is cancelled
func (a *AuthRelay) Serve(ctx context.Context, l net.Listener) error {
	return a.run(ctx, func() error { return a.httpServer.Serve(l) })
}

func (a *AuthRelay) run(ctx context.Context, serve func() error) error {
	log.LogInfoWithFields("authrelay", "Starting auth relay", map[string]any{
		"addr": a.config.Addr,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := serve(); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		reason := "context cancelled"
		if ctx.Err() == nil {
			reason = "server error"
		}
		log.LogInfoWithFields("authrelay", "Starting graceful shutdown", map[string]any{
			"reason":  reason,
			"timeout": ShutdownTimeout.String(),
		})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if a.rateLimiter != nil {
			a.rateLimiter.Stop()
		}
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.LogErrorWithFields("authrelay", "Auth relay stopped with error", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	log.LogInfoWithFields("authrelay", "Application shutdown complete", nil)
	return nil
}

// setupCodec builds the session token codec. Development without a
// configured secret gets an ephemeral one, so tokens die with the process.
func setupCodec(cfg config.Config) (*sessiontoken.Codec, error) {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		if cfg.IsProduction() {
			return nil, errors.New("session secret is required in production")
		}
		random, err := crypto.RandomBytes(crypto.KeySize)
		if err != nil {
			return nil, err
		}
		secret = random
		log.LogWarnWithFields("authrelay", "No session secret configured, using an ephemeral one", map[string]any{
			"env": cfg.Env,
		})
	}
	return sessiontoken.NewCodec(secret)
}

// setupProvider builds the identity provider. Missing client credentials are
// not fatal: the relay runs in unconfigured mode with a nil provider.
func setupProvider(ctx context.Context, cfg config.Config) (idp.Provider, error) {
	provider, err := idp.NewProvider(ctx, cfg.Provider, cfg.RedirectURI())
	if errors.Is(err, idp.ErrUnconfigured) {
		log.LogWarnWithFields("authrelay", "Identity provider not configured, sign-in is disabled", map[string]any{
			"provider": cfg.Provider.Kind,
		})
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	log.LogInfoWithFields("authrelay", "Identity provider configured", map[string]any{
		"provider":    provider.Type(),
		"redirectURI": cfg.RedirectURI(),
	})
	return provider, nil
}
