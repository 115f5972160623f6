package thresholds

import "time"

// Metric names match what devices report and what alerts reference.
const (
	MetricHeartRate       = "HEART_RATE"
	MetricOxygenLevel     = "OXYGEN_LEVEL"
	MetricBodyTemperature = "BODY_TEMPERATURE"
)

// Threshold is a per-metric acceptable range. A nil bound means that
// side is unbounded (e.g. oxygen has no maximum).
type Threshold struct {
	ID          string    `json:"id"`
	Metric      string    `json:"metric"`
	MinValue    *float64  `json:"minValue"`
	MaxValue    *float64  `json:"maxValue"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
