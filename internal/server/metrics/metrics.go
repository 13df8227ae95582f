// Package metrics exposes Prometheus instruments for the authentication
// paths.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeConflict           = "conflict"
	OutcomeInvalidInput       = "invalid_input"
	OutcomeError              = "error"

	DecisionPublic  = "public"
	DecisionAllowed = "allowed"
	DecisionDenied  = "denied"
)

// Metrics holds the accountd instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	LoginAttempts  *prometheus.CounterVec
	Registrations  *prometheus.CounterVec
	Logouts        prometheus.Counter
	GuardDecisions *prometheus.CounterVec
	HashDuration   *prometheus.HistogramVec
	HTTPRequests   *prometheus.CounterVec
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		LoginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountd_login_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		Registrations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountd_registrations_total",
				Help: "Registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		Logouts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "accountd_logouts_total",
				Help: "Tokens revoked by logout",
			},
		),
		GuardDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountd_guard_decisions_total",
				Help: "Access guard decisions",
			},
			[]string{"decision"},
		),
		HashDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "accountd_password_hash_duration_seconds",
				Help:    "Time spent deriving argon2 keys, including queueing",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"op"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountd_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"method", "route", "status"},
		),
	}
}

// NewRegistry creates a private registry with accountd and Go runtime
// collectors registered.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, NewMetrics(reg)
}

func HandlerFor(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Logout() {
	if m == nil {
		return
	}
	m.Logouts.Inc()
}

func (m *Metrics) Guard(decision string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(decision).Inc()
}

// ObserveHash records the time since start under op ("hash" or "verify").
func (m *Metrics) ObserveHash(op string, start time.Time) {
	if m == nil {
		return
	}
	m.HashDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Request(method, route, status string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
}
