package vitals

import "time"

// Vital is a single telemetry reading reported by a device.
type Vital struct {
	ID              string    `json:"id"`
	DeviceID        string    `json:"deviceId"`
	HeartRate       float64   `json:"heartRate"`
	OxygenLevel     float64   `json:"oxygenLevel"`
	BodyTemperature float64   `json:"bodyTemperature"`
	Steps           int       `json:"steps"`
	CreatedAt       time.Time `json:"createdAt"`
}
