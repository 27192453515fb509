package tally

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictionsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "presage",
		Subsystem: "tally",
		Name:      "predictions_recorded_total",
		Help:      "Predictions registered for later verification.",
	})

	predictionsVerified = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "presage",
		Subsystem: "tally",
		Name:      "predictions_verified_total",
		Help:      "Predictions matched against a real alert.",
	})
)
