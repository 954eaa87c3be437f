package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestBackendMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBackendMetrics(reg)
	m.Observe("get_cart", 200, 120*time.Millisecond)
	m.Observe("get_cart", 401, 10*time.Millisecond)
	m.Observe("checkout", 0, 5*time.Millisecond)
	m.IncSessionExpired()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "residence_portal_backend_requests_total", map[string]string{"operation": "get_cart", "status_class": "2xx"}); err != nil {
		t.Fatalf("fetch 2xx: %v", err)
	} else if got != 1 {
		t.Fatalf("expected 2xx=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "residence_portal_backend_requests_total", map[string]string{"operation": "checkout", "status_class": "error"}); err != nil {
		t.Fatalf("fetch transport error: %v", err)
	} else if got != 1 {
		t.Fatalf("expected error=1, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "residence_portal_backend_request_duration_seconds", map[string]string{"operation": "get_cart"}); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "residence_portal_session_expired_total", nil); err != nil {
		t.Fatalf("fetch expired: %v", err)
	} else if got != 1 {
		t.Fatalf("expected expired=1, got %f", got)
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("/rooftop/cart", "GET", 303, time.Millisecond)
	m.Observe("", "GET", 404, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "residence_portal_http_requests_total", map[string]string{"route": "/rooftop/cart", "status_class": "3xx"}); err != nil || got != 1 {
		t.Fatalf("expected one 3xx cart request, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "residence_portal_http_requests_total", map[string]string{"route": "unknown", "status_class": "4xx"}); err != nil || got != 1 {
		t.Fatalf("expected one unknown route, got %f (%v)", got, err)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewBackendMetrics(nil).Observe("x", 200, time.Second)
	NewBackendMetrics(nil).IncSessionExpired()
	NewHTTPMetrics(nil).Observe("x", "GET", 200, time.Second)
	var m *BackendMetrics
	m.Observe("x", 500, time.Second)
}

func TestStatusClass(t *testing.T) {
	cases := map[int]string{0: "error", 200: "2xx", 302: "3xx", 404: "4xx", 503: "5xx", 700: "error"}
	for status, want := range cases {
		if got := StatusClass(status); got != want {
			t.Fatalf("StatusClass(%d)=%s, want %s", status, got, want)
		}
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
