// Package metrics exposes Prometheus collectors for provider calls, commands and caches.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/vars"
)

const namespace = "xfor"

// Registry holds every collector of the process.
var Registry = prometheus.NewRegistry()

var (
	// ProviderRequests counts upstream calls by provider and outcome (ok, error).
	ProviderRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "requests_total",
		Help:      "Upstream provider requests by outcome.",
	}, []string{"provider", "outcome"})

	// ProviderLatency observes upstream call durations.
	ProviderLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "request_duration_seconds",
		Help:      "Upstream provider request duration.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20},
	}, []string{"provider"})

	// Commands counts handled commands by name and result.
	Commands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bot",
		Name:      "commands_total",
		Help:      "Handled commands and interactions by result.",
	}, []string{"command", "result"})

	// QueryCacheLookups counts query cache hits and misses.
	QueryCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "query_lookups_total",
		Help:      "Query cache lookups by result (hit, miss).",
	}, []string{"result"})

	// CacheEntries reports live entries per cache.
	CacheEntries = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "entries",
		Help:      "Entries held by in-memory caches.",
	}, []string{"cache"})

	// BuildInfo is always 1 and labeled with the binary version.
	BuildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build metadata of the running binary.",
	}, []string{"version", "commit"})

	// JobRuns counts periodic job executions by outcome.
	JobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "maintenance",
		Name:      "job_runs_total",
		Help:      "Periodic job runs by outcome.",
	}, []string{"job", "outcome"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ProviderRequests,
		ProviderLatency,
		Commands,
		QueryCacheLookups,
		CacheEntries,
		JobRuns,
		BuildInfo,
	)

	BuildInfo.WithLabelValues(vars.Version, vars.CommitShort()).Set(1)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Outcome maps an error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
