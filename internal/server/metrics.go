package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposed on /metrics for scraping
var (
	readingsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "saffron",
		Name:      "readings_received_total",
		Help:      "Readings accepted over WebSocket.",
	})

	readingsInvalid = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "saffron",
		Name:      "readings_invalid_total",
		Help:      "Readings dropped because validation failed.",
	})

	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "saffron",
		Name:      "evaluations_total",
		Help:      "Health evaluations served, by verdict.",
	}, []string{"verdict"})

	activeSensorsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "saffron",
		Name:      "active_sensors",
		Help:      "Currently connected greenhouse sensors.",
	})
)
