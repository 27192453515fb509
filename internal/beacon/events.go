package beacon

// Event topics published by the Beacon module.
const (
	// TopicAlertRecorded carries a *models.Alert payload for every alert
	// accepted into history, synthetic predictions included.
	TopicAlertRecorded = "beacon.alert.recorded"
)
