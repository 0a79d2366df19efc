// Package metrics exposes prometheus counters for session resolution and
// refresh outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sessionsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authbridge_sessions_resolved_total",
			Help: "Session resolutions by terminal state",
		},
		[]string{"state"},
	)

	refreshExchanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authbridge_refresh_total",
			Help: "Refresh-token exchanges by result",
		},
		[]string{"result"},
	)

	sealFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authbridge_seal_failures_total",
			Help: "Session cookies that failed seal verification",
		},
	)
)

// ObserveResolution records a session resolution terminal state.
func ObserveResolution(state string) {
	sessionsResolved.WithLabelValues(state).Inc()
}

// ObserveRefresh records a refresh exchange result ("success" or
// "failure").
func ObserveRefresh(result string) {
	refreshExchanges.WithLabelValues(result).Inc()
}

// ObserveSealFailure records a corrupt or forged session cookie.
func ObserveSealFailure() {
	sealFailures.Inc()
}

// Handler serves the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
