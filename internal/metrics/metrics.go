// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ProbeResults counts config flow connection probes by outcome
	// (ok, cannot_connect, invalid_auth, unknown).
	ProbeResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mpdhub",
		Name:      "probe_results_total",
		Help:      "Connection probes run by the config flow, by result.",
	}, []string{"result"})

	PlayersLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mpdhub",
		Name:      "players_loaded",
		Help:      "Media players currently set up.",
	})

	PlayerReconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mpdhub",
		Name:      "player_reconnects_total",
		Help:      "Reconnect attempts made by media players after a lost connection.",
	})

	Registry = prometheus.NewRegistry()
)

func init() {
	Registry.MustRegister(
		ProbeResults,
		PlayersLoaded,
		PlayerReconnects,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
