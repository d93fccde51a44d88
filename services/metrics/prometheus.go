// Package metricsvc exposes the session layer's counters over Prometheus.
package metricsvc

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/virtualcampus/campus/core/session"
)

type Prometheus struct {
	registry *prometheus.Registry

	authOps                *prometheus.CounterVec
	authErrors             *prometheus.CounterVec
	authEvents             *prometheus.CounterVec
	profileFetchFailures   prometheus.Counter
	verificationsFinalized prometheus.Counter
}

var _ session.Metrics = (*Prometheus)(nil)

func NewPrometheus() *Prometheus {
	m := &Prometheus{
		registry: prometheus.NewRegistry(),
		authOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campus",
			Name:      "auth_operations_total",
			Help:      "Auth gateway operations, by operation.",
		}, []string{"operation"}),
		authErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campus",
			Name:      "auth_errors_total",
			Help:      "Auth gateway failures, by error code.",
		}, []string{"code"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campus",
			Name:      "auth_events_total",
			Help:      "Auth-state-change events applied to the session store, by type.",
		}, []string{"type"}),
		profileFetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "campus",
			Name:      "profile_fetch_failures_total",
			Help:      "Profile lookups that failed after a session change.",
		}),
		verificationsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "campus",
			Name:      "verifications_finalized_total",
			Help:      "Email verification flows that reached the confirmed state.",
		}),
	}
	m.registry.MustRegister(
		m.authOps,
		m.authErrors,
		m.authEvents,
		m.profileFetchFailures,
		m.verificationsFinalized,
	)
	return m
}

// Handler serves the scrape endpoint.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Prometheus) AuthOperation(op string) { m.authOps.WithLabelValues(op).Inc() }

func (m *Prometheus) AuthError(code string) { m.authErrors.WithLabelValues(code).Inc() }

func (m *Prometheus) AuthEvent(typ string) { m.authEvents.WithLabelValues(typ).Inc() }

func (m *Prometheus) ProfileFetchFailure() { m.profileFetchFailures.Inc() }

func (m *Prometheus) VerificationFinalized() { m.verificationsFinalized.Inc() }
