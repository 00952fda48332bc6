// Package monitoring provides Prometheus instrumentation for the job
// runtime and the HTTP surface.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the service exposes.
type Metrics struct {
	registry *prometheus.Registry

	JobsStarted   prometheus.Counter
	JobsCompleted prometheus.Counter
	JobsFailed    prometheus.Counter
	JobsCancelled prometheus.Counter

	SolveDuration     prometheus.Histogram
	SolverBacktracks  prometheus.Counter
	SolverNodes       prometheus.Counter
	ClientsInfeasible prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewMetrics creates a metrics set on a private registry so tests can
// instantiate it repeatedly without collisions.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Metrics{
		registry: registry,

		JobsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "menuforge_jobs_started_total",
			Help: "Generation jobs accepted",
		}),
		JobsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "menuforge_jobs_completed_total",
			Help: "Generation jobs that reached completed",
		}),
		JobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "menuforge_jobs_failed_total",
			Help: "Generation jobs that reached error",
		}),
		JobsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "menuforge_jobs_cancelled_total",
			Help: "Generation jobs released before completion",
		}),

		SolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "menuforge_solve_duration_seconds",
			Help:    "Wall time of one client's backtracking search",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		SolverBacktracks: factory.NewCounter(prometheus.CounterOpts{
			Name: "menuforge_solver_backtracks_total",
			Help: "Backtrack steps taken by the search engine",
		}),
		SolverNodes: factory.NewCounter(prometheus.CounterOpts{
			Name: "menuforge_solver_nodes_total",
			Help: "Candidate evaluations made by the search engine",
		}),
		ClientsInfeasible: factory.NewCounter(prometheus.CounterOpts{
			Name: "menuforge_clients_infeasible_total",
			Help: "Clients for which no satisfying assignment exists",
		}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "menuforge_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "menuforge_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// RecordRequest records one HTTP request observation.
func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
