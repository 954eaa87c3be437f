package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "residence_portal"

// BackendMetrics records outbound calls made through the API gateway client.
type BackendMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	expired  prometheus.Counter
}

// NewBackendMetrics registers the backend call metrics on the provided registerer.
func NewBackendMetrics(reg prometheus.Registerer) *BackendMetrics {
	if reg == nil {
		return &BackendMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Backend API calls by operation and status class.",
	}, []string{"operation", "status_class"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Latency of backend API calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	expired := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_expired_total",
		Help:      "Session expiry events published after a 401 from the backend.",
	})
	reg.MustRegister(requests, duration, expired)
	return &BackendMetrics{
		requests: requests,
		duration: duration,
		expired:  expired,
	}
}

// Observe records one completed call. status is 0 when the transport failed.
func (m *BackendMetrics) Observe(operation string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	op := normalizeLabel(operation)
	m.requests.WithLabelValues(op, StatusClass(status)).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// IncSessionExpired counts a published expiry event.
func (m *BackendMetrics) IncSessionExpired() {
	if m == nil || m.expired == nil {
		return
	}
	m.expired.Inc()
}

// StatusClass buckets an HTTP status into 2xx/3xx/4xx/5xx, or "error" for transport failures.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
