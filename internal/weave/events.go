package weave

// Event topics consumed by the Weave module.
const (
	TopicAlertRecorded = "beacon.alert.recorded"
)

// Event topics published by the Weave module.
const (
	// TopicBatchArchived carries a *models.Batch payload after the batch
	// has been correlated and written to durable storage.
	TopicBatchArchived = "weave.batch.archived"
)
