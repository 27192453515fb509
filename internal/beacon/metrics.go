package beacon

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	alertsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "presage",
		Subsystem: "beacon",
		Name:      "alerts_recorded_total",
		Help:      "Alerts accepted into history, by severity.",
	}, []string{"severity"})

	notificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "presage",
		Subsystem: "beacon",
		Name:      "notifications_sent_total",
		Help:      "Successful notification deliveries, by channel type.",
	}, []string{"channel_type"})

	notificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "presage",
		Subsystem: "beacon",
		Name:      "notification_failures_total",
		Help:      "Failed notification deliveries, by channel type.",
	}, []string{"channel_type"})
)
