package tally

// Event topics published by the tally module.
const (
	// TopicPredictionVerified fires when a pending prediction is matched
	// against a real alert. Payload: *Record.
	TopicPredictionVerified = "tally.prediction.verified"
)
