package devices

import (
	"time"

	"healthmonitor/internal/vitals"
)

// Device is a registered telemetry source. DeviceID is the business
// identifier the device sends with every reading (e.g. "P-102");
// deletion is a soft deactivate so history stays queryable.
type Device struct {
	ID          string
	DeviceID    string
	Active      bool
	LastVitalID *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Overview pairs a device with its most recent reading.
type Overview struct {
	DeviceID  string        `json:"deviceId"`
	Active    bool          `json:"active"`
	LastVital *vitals.Vital `json:"lastVital"`
}

// Status alert states.
const (
	StatusOK     = "OK"
	StatusAlert  = "ALERT"
	StatusNoData = "NO_DATA"
)

// Status is the dashboard row for a device: derived state plus the
// latest raw numbers.
type Status struct {
	DeviceID        string     `json:"deviceId"`
	Status          string     `json:"status"`
	HeartRate       *float64   `json:"heartRate"`
	OxygenLevel     *float64   `json:"oxygenLevel"`
	BodyTemperature *float64   `json:"bodyTemperature"`
	Steps           *int       `json:"steps"`
	LastUpdate      *time.Time `json:"lastUpdate"`
}
