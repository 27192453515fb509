package weave

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var batchesArchived = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "presage",
	Subsystem: "weave",
	Name:      "batches_archived_total",
	Help:      "Closed non-empty batches handed to the archive.",
})
