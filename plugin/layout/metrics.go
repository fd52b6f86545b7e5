package layout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notegraph_layout_ticks_total",
		Help: "Total simulation ticks executed",
	})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notegraph_layout_tick_duration_seconds",
		Help:    "Simulation tick duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14), // 10µs to ~80ms
	})

	settledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notegraph_layout_settled_total",
		Help: "Total simulations that reached the settled state",
	})
)
