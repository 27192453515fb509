package seer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	patternsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "presage",
		Subsystem: "seer",
		Name:      "patterns_tracked",
		Help:      "Patterns currently held in the registry.",
	})

	predictionsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "presage",
		Subsystem: "seer",
		Name:      "predictions_emitted_total",
		Help:      "Synthetic prediction alerts recorded.",
	})
)
