package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	_ = c.Write(m)
	return m.GetCounter().GetValue()
}

func TestProbeResultsCounter(t *testing.T) {
	c := ProbeResults.WithLabelValues("cannot_connect")
	before := counterValue(c)
	c.Inc()
	if v := counterValue(c); v != before+1 {
		t.Errorf("expected %v, got %v", before+1, v)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	ProbeResults.WithLabelValues("ok").Inc()
	PlayerReconnects.Inc()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, name := range []string{"mpdhub_probe_results_total", "mpdhub_players_loaded", "mpdhub_player_reconnects_total", "go_goroutines"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in output", name)
		}
	}
}
