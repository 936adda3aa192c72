// Package metrics exposes the relay counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the handlers report to
type Recorder interface {
	RecordLoginStarted(source string)
	RecordCallback(outcome string)
	RecordExchange(duration time.Duration, err error)
	RecordRateLimited()
}

// Collector is the Prometheus implementation of Recorder
type Collector struct {
	loginStarted     *prometheus.CounterVec
	callbacks        *prometheus.CounterVec
	exchangeDuration *prometheus.HistogramVec
	rateLimited      prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authrelay_login_started_total",
			Help: "Sign-in flows redirected to the identity provider, by delivery source.",
		}, []string{"source"}),
		callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authrelay_callback_total",
			Help: "Provider callbacks by terminal outcome.",
		}, []string{"outcome"}),
		exchangeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authrelay_exchange_duration_seconds",
			Help:    "Duration of the authorization code exchange including the identity lookup.",
			Buckets: prometheus.DefBuckets,
		}, []string{"result"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authrelay_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter.",
		}),
	}

	reg.MustRegister(
		c.loginStarted,
		c.callbacks,
		c.exchangeDuration,
		c.rateLimited,
	)

	return c
}

func (c *Collector) RecordLoginStarted(source string) {
	c.loginStarted.WithLabelValues(source).Inc()
}

func (c *Collector) RecordCallback(outcome string) {
	c.callbacks.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordExchange(duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.exchangeDuration.WithLabelValues(result).Observe(duration.Seconds())
}

func (c *Collector) RecordRateLimited() {
	c.rateLimited.Inc()
}

// Handler returns the scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop discards every measurement
type Noop struct{}

func (Noop) RecordLoginStarted(string) {}
func (Noop) RecordCallback(string) {}
func (Noop) RecordExchange(time.Duration, error) {}
func (Noop) RecordRateLimited() {}
