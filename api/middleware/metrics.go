package middleware

import (
	"net/http"
	"time"

	"github.com/angelmondragon/residence-portal/pkg/metrics"
)

// Metrics records every request under its chi route pattern, not the raw
// path.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)
			m.Observe(routePattern(r), r.Method, rec.code(), time.Since(start))
		})
	}
}
