package reports

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"healthmonitor/internal/devices"
	"healthmonitor/internal/vitals"
)

// Report aggregates a device's readings over a trailing window.
type Report struct {
	DeviceID       string  `json:"deviceId"`
	TimeWindow     int     `json:"timeWindow"`
	AvgHeartRate   float64 `json:"avgHeartRate"`
	MinOxygenLevel float64 `json:"minOxygenLevel"`
	MaxHeartRate   float64 `json:"maxHeartRate"`
	MinHeartRate   float64 `json:"minHeartRate"`
	AvgBodyTemp    float64 `json:"avgBodyTemperature"`
	AlertCount     int64   `json:"alertCount"`
	TotalReadings  int64   `json:"totalReadings"`
}

// VitalSource provides the readings a report is built from.
type VitalSource interface {
	FindByDeviceSince(ctx context.Context, deviceID string, since time.Time) ([]*vitals.Vital, error)
}

// DeviceSource validates that the reported device exists.
type DeviceSource interface {
	FindByDeviceID(ctx context.Context, deviceID string) (*devices.Device, error)
}

// AlertCounter counts a device's alerts in the window.
type AlertCounter interface {
	CountByDeviceSince(ctx context.Context, deviceID string, since time.Time) (int64, error)
}

type Service struct {
	vitalSource VitalSource
	devices     DeviceSource
	alerts      AlertCounter
}

func NewService(vitalSource VitalSource, deviceSource DeviceSource, alertCounter AlertCounter) *Service {
	return &Service{vitalSource: vitalSource, devices: deviceSource, alerts: alertCounter}
}

// Generate builds the report for the trailing windowMinutes. A device
// with no readings in the window yields a zeroed report, not an error.
func (s *Service) Generate(ctx context.Context, deviceID string, windowMinutes int) (*Report, error) {
	if err := s.validateDevice(ctx, deviceID); err != nil {
		return nil, err
	}

	since := time.Now().UTC().Add(-time.Duration(windowMinutes) * time.Minute)
	readings, err := s.vitalSource.FindByDeviceSince(ctx, deviceID, since)
	if err != nil {
		return nil, err
	}

	report := &Report{DeviceID: deviceID, TimeWindow: windowMinutes}
	if len(readings) == 0 {
		return report, nil
	}

	var sumHeartRate, sumBodyTemp float64
	minHeartRate := math.MaxFloat64
	maxHeartRate := -math.MaxFloat64
	minOxygen := math.MaxFloat64

	for _, v := range readings {
		sumHeartRate += v.HeartRate
		sumBodyTemp += v.BodyTemperature
		minHeartRate = math.Min(minHeartRate, v.HeartRate)
		maxHeartRate = math.Max(maxHeartRate, v.HeartRate)
		minOxygen = math.Min(minOxygen, v.OxygenLevel)
	}

	alertCount, err := s.alerts.CountByDeviceSince(ctx, deviceID, since)
	if err != nil {
		return nil, err
	}

	count := float64(len(readings))
	report.AvgHeartRate = round2(sumHeartRate / count)
	report.MinOxygenLevel = round2(minOxygen)
	report.MaxHeartRate = round2(maxHeartRate)
	report.MinHeartRate = round2(minHeartRate)
	report.AvgBodyTemp = round2(sumBodyTemp / count)
	report.AlertCount = alertCount
	report.TotalReadings = int64(len(readings))

	return report, nil
}

// ExportCSV renders the window's raw readings as CSV.
func (s *Service) ExportCSV(ctx context.Context, deviceID string, windowMinutes int) (string, error) {
	if err := s.validateDevice(ctx, deviceID); err != nil {
		return "", err
	}

	since := time.Now().UTC().Add(-time.Duration(windowMinutes) * time.Minute)
	readings, err := s.vitalSource.FindByDeviceSince(ctx, deviceID, since)
	if err != nil {
		return "", err
	}

	var csv strings.Builder
	csv.WriteString("Device ID,Timestamp,Heart Rate,Oxygen Level,Body Temperature,Steps\n")
	for _, v := range readings {
		fmt.Fprintf(&csv, "%s,%s,%g,%g,%g,%d\n",
			v.DeviceID,
			v.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			v.HeartRate, v.OxygenLevel, v.BodyTemperature, v.Steps,
		)
	}

	return csv.String(), nil
}

func (s *Service) validateDevice(ctx context.Context, deviceID string) error {
	device, err := s.devices.FindByDeviceID(ctx, deviceID)
	if err != nil {
		return err
	}
	if device == nil {
		return devices.ErrDeviceNotFound
	}
	return nil
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
