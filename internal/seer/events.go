package seer

// Event topics published by the seer module.
const (
	// TopicPredictionEmitted fires when a synthetic prediction alert is
	// recorded. Payload: *models.Pattern.
	TopicPredictionEmitted = "seer.prediction.emitted"
)
