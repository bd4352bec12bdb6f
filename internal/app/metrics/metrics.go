package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "shabiki",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shabiki",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shabiki",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	chatConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "shabiki",
			Subsystem: "chat",
			Name:      "open_connections",
			Help:      "Current number of open chat connections.",
		},
	)

	chatBroadcasts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shabiki",
			Subsystem: "chat",
			Name:      "broadcast_messages_total",
			Help:      "Total number of chat messages broadcast to connections.",
		},
	)

	memeGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shabiki",
			Subsystem: "memes",
			Name:      "generations_total",
			Help:      "Total number of meme generation attempts.",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		chatConnections,
		chatBroadcasts,
		memeGenerations,
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// IncrementInFlight bumps the in-flight HTTP gauge.
func IncrementInFlight() { httpInFlight.Inc() }

// DecrementInFlight lowers the in-flight HTTP gauge.
func DecrementInFlight() { httpInFlight.Dec() }

// RecordHTTPRequest records one handled request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ConnectionOpened tracks a chat connection entering the registry.
func ConnectionOpened() { chatConnections.Inc() }

// ConnectionClosed tracks a chat connection leaving the registry.
func ConnectionClosed() { chatConnections.Dec() }

// RecordBroadcast counts one message fan-out.
func RecordBroadcast() { chatBroadcasts.Inc() }

// RecordMemeGeneration counts one generation attempt by outcome.
func RecordMemeGeneration(status string) {
	memeGenerations.WithLabelValues(status).Inc()
}
