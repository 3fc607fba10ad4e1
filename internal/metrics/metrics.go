// Package metrics holds the Prometheus collectors for the login flow.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shindakun/urlshort/internal/login"
)

const namespace = "urlshort"

// Metrics is an app-owned registry plus the collectors registered on it
type Metrics struct {
	Registry *prometheus.Registry

	submissions *prometheus.CounterVec
	authLatency *prometheus.HistogramVec
}

// New creates a registry with process and Go runtime collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "login",
			Name:      "submissions_total",
			Help:      "Login form submissions by outcome.",
		}, []string{"outcome"}),
		authLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests to the authentication endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code"}),
	}

	reg.MustRegister(
		m.submissions,
		m.authLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveOutcome counts one submission. Wire it as login.Deps.Observe.
func (m *Metrics) ObserveOutcome(o login.Outcome) {
	m.submissions.WithLabelValues(string(o)).Inc()
}

// ObserveAuth records one auth request. Wire it with authapi.WithObserver.
// status 0 means the request never got a response.
func (m *Metrics) ObserveAuth(status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.authLatency.WithLabelValues(code).Observe(elapsed.Seconds())
}

// Handler serves the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
