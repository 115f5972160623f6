package reports

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"healthmonitor/internal/devices"
	"healthmonitor/internal/vitals"
)

type staticVitals struct {
	readings []*vitals.Vital
}

func (s *staticVitals) FindByDeviceSince(_ context.Context, deviceID string, since time.Time) ([]*vitals.Vital, error) {
	matched := make([]*vitals.Vital, 0)
	for _, v := range s.readings {
		if v.DeviceID == deviceID && !v.CreatedAt.Before(since) {
			matched = append(matched, v)
		}
	}
	return matched, nil
}

type staticDevices struct {
	known map[string]bool
}

func (s *staticDevices) FindByDeviceID(_ context.Context, deviceID string) (*devices.Device, error) {
	if !s.known[deviceID] {
		return nil, nil
	}
	return &devices.Device{ID: "id-" + deviceID, DeviceID: deviceID, Active: true}, nil
}

type staticAlertCount struct {
	count int64
}

func (s *staticAlertCount) CountByDeviceSince(_ context.Context, _ string, _ time.Time) (int64, error) {
	return s.count, nil
}

func newReportFixture(readings []*vitals.Vital, alertCount int64) *Service {
	return NewService(
		&staticVitals{readings: readings},
		&staticDevices{known: map[string]bool{"dev-1": true}},
		&staticAlertCount{count: alertCount},
	)
}

func reading(minutesAgo int, hr, o2, temp float64, steps int) *vitals.Vital {
	return &vitals.Vital{
		DeviceID:        "dev-1",
		HeartRate:       hr,
		OxygenLevel:     o2,
		BodyTemperature: temp,
		Steps:           steps,
		CreatedAt:       time.Now().UTC().Add(-time.Duration(minutesAgo) * time.Minute),
	}
}

func TestGenerateComputesWindowStats(t *testing.T) {
	service := newReportFixture([]*vitals.Vital{
		reading(5, 60, 95, 36.5, 100),
		reading(10, 80, 92, 37.0, 200),
		reading(15, 100, 98, 36.8, 300),
	}, 2)

	report, err := service.Generate(context.Background(), "dev-1", 60)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if report.TotalReadings != 3 {
		t.Fatalf("expected 3 readings, got %d", report.TotalReadings)
	}
	if report.AvgHeartRate != 80 {
		t.Fatalf("expected avg heart rate 80, got %g", report.AvgHeartRate)
	}
	if report.MinHeartRate != 60 || report.MaxHeartRate != 100 {
		t.Fatalf("expected heart rate range 60..100, got %g..%g", report.MinHeartRate, report.MaxHeartRate)
	}
	if report.MinOxygenLevel != 92 {
		t.Fatalf("expected min oxygen 92, got %g", report.MinOxygenLevel)
	}
	if report.AvgBodyTemp != 36.77 {
		t.Fatalf("expected two-decimal avg temperature 36.77, got %g", report.AvgBodyTemp)
	}
	if report.AlertCount != 2 {
		t.Fatalf("expected 2 alerts, got %d", report.AlertCount)
	}
}

func TestGenerateExcludesReadingsOutsideWindow(t *testing.T) {
	service := newReportFixture([]*vitals.Vital{
		reading(5, 60, 95, 36.5, 100),
		reading(90, 200, 70, 40.0, 0),
	}, 0)

	report, err := service.Generate(context.Background(), "dev-1", 60)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.TotalReadings != 1 {
		t.Fatalf("expected 1 reading inside the window, got %d", report.TotalReadings)
	}
	if report.MaxHeartRate != 60 {
		t.Fatalf("old reading leaked into stats: max heart rate %g", report.MaxHeartRate)
	}
}

func TestGenerateEmptyWindow(t *testing.T) {
	service := newReportFixture(nil, 0)

	report, err := service.Generate(context.Background(), "dev-1", 60)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.TotalReadings != 0 || report.AvgHeartRate != 0 || report.AlertCount != 0 {
		t.Fatalf("expected zeroed report, got %+v", report)
	}
	if report.DeviceID != "dev-1" || report.TimeWindow != 60 {
		t.Fatalf("report should still identify device and window, got %+v", report)
	}
}

func TestGenerateUnknownDevice(t *testing.T) {
	service := newReportFixture(nil, 0)

	_, err := service.Generate(context.Background(), "ghost", 60)
	if !errors.Is(err, devices.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestExportCSV(t *testing.T) {
	service := newReportFixture([]*vitals.Vital{
		reading(5, 72, 97, 36.6, 1500),
	}, 0)

	csv, err := service.ExportCSV(context.Background(), "dev-1", 60)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if lines[0] != "Device ID,Timestamp,Heart Rate,Oxygen Level,Body Temperature,Steps" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "dev-1,") || !strings.HasSuffix(lines[1], ",72,97,36.6,1500") {
		t.Fatalf("unexpected row %q", lines[1])
	}
}
