package stats

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

// gatherValue reads a single gauge or counter sample from reg.
func gatherValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	assert.NoError(t, err, "expected gather to succeed")

	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			if m.GetGauge() != nil {
				return m.GetGauge().GetValue()
			}
			return m.GetCounter().GetValue()
		}
	}
	return -1
}

func TestNewStatsUpdater(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	assert.NotNil(t, su, "expected StatsUpdater to be non-nil")
	assert.NotNil(t, su.updateChan, "expected updateChan to be initialized")
	handler, pattern := mux.Handler(&http.Request{URL: &url.URL{Path: "/metrics"}, Method: http.MethodGet})
	assert.NotNil(t, handler, "expected handler for /metrics to be set")
	assert.Equal(t, "GET /metrics", pattern, "expected handler to be registered for GET method on /metrics")
}

func TestIncrDecr(t *testing.T) {
	su := NewStatsUpdater(http.NewServeMux())
	su.RegisterMetric(ActiveConnections)
	su.Run()

	su.Incr(ActiveConnections)
	su.Incr(ActiveConnections)
	su.Decr(ActiveConnections)

	assert.Eventually(t, func() bool {
		return gatherValue(t, su.registry, "interview_active_connections", nil) == 1
	}, time.Second, 10*time.Millisecond, "expected gauge to settle at 1")

	su.Stop()
}

func TestIncrAfterStop(t *testing.T) {
	su := NewStatsUpdater(http.NewServeMux())
	su.RegisterMetric(AuditFailures)
	su.Run()
	su.Stop()

	assert.NotPanics(t, func() {
		for i := 0; i < 1024; i++ {
			su.Incr(AuditFailures)
			su.Decr(AuditFailures)
		}
	}, "expected updates after stop to be dropped")
	assert.NotPanics(t, su.Stop, "expected repeated stop to be a no-op")
}

func TestRegisterMetricTwice(t *testing.T) {
	su := NewStatsUpdater(http.NewServeMux())
	su.RegisterMetric(ActiveRooms)
	assert.NotPanics(t, func() { su.RegisterMetric(ActiveRooms) }, "expected duplicate registration to be ignored")
}

func TestMetricsEndpoint(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	su.RegisterMetric(AuditFailures)

	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	assert.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "interview_audit_failures"), "expected registered gauge in scrape output")
	assert.True(t, strings.Contains(string(body), "interview_uptime_milliseconds"), "expected uptime gauge in scrape output")
}

func TestMiddleware(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	mux.HandleFunc("GET /api/interviews/{interviewID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	handler := su.Middleware(mux)(mux)
	for _, id := range []string{"a", "b", "c"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/interviews/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	}

	count := gatherValue(t, su.registry, "interview_http_requests_total", map[string]string{
		"method": http.MethodGet,
		"route":  "GET /api/interviews/{interviewID}",
		"status": "404",
	})
	assert.Equal(t, float64(3), count, "expected requests to share the route label")
}
