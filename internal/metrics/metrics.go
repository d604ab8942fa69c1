package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BotUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cricketbot", Name: "updates_total", Help: "Processed telegram updates",
	})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cricketbot", Name: "handler_errors_total", Help: "Handler errors",
	})
	APIRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cricketbot", Name: "api_requests_total", Help: "Backend API requests by endpoint and status",
	}, []string{"endpoint", "status"})
	APILatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cricketbot", Name: "api_request_seconds", Help: "Backend API latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	Unauthorized = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cricketbot", Name: "unauthorized_redirects_total", Help: "Sessions dropped after a 401 from the backend",
	})
	Exports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cricketbot", Name: "exports_total", Help: "Generated report files",
	}, []string{"format"})
	StoragePing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cricketbot", Name: "storage_ping_seconds", Help: "Chat storage ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(BotUpdates, HandlerErrors, APIRequests, APILatency, Unauthorized, Exports, StoragePing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveStoragePing(d time.Duration) { StoragePing.Observe(d.Seconds()) }

func ObserveAPI(endpoint, status string, d time.Duration) {
	APIRequests.WithLabelValues(endpoint, status).Inc()
	APILatency.WithLabelValues(endpoint).Observe(d.Seconds())
}
