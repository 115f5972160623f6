package alerts

import "time"

// Alert records a threshold violation by a single reading. Threshold
// describes the violated bound, e.g. "ABOVE 100".
type Alert struct {
	ID             string     `json:"id"`
	DeviceID       string     `json:"deviceId"`
	VitalID        string     `json:"vitalId"`
	Metric         string     `json:"metric"`
	Value          float64    `json:"value"`
	Threshold      string     `json:"threshold"`
	TriggeredAt    time.Time  `json:"triggeredAt"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
}
