package metrics_test

import (
	"expvar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DMarby/filterlab/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

var testGauge = expvar.NewInt("gauge_metrics_test_value")

func TestHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "filterlab_metrics_test_total",
		Help: "Test counter.",
	})
	registry.MustRegister(counter)

	counter.Add(3)
	testGauge.Set(7)

	w := httptest.NewRecorder()
	metrics.Handler(registry).ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body := w.Body.String()
	for _, expected := range []string{
		"# TYPE filterlab_metrics_test_total counter\n",
		"filterlab_metrics_test_total 3\n",
		"# TYPE metrics_test_value gauge\n",
		"metrics_test_value 7\n",
	} {
		if !strings.Contains(body, expected) {
			t.Errorf("missing %q in %s", expected, body)
		}
	}
}
