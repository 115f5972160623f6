package thresholds

import (
	"context"
	"errors"
	"fmt"

	"healthmonitor/internal/vitals"
)

var ErrMetricNotFound = errors.New("threshold not found for metric")

// Store is what the service needs from persistence; satisfied by
// Repository and by in-memory fakes in tests.
type Store interface {
	FindAll(ctx context.Context) ([]*Threshold, error)
	FindByMetric(ctx context.Context, metric string) (*Threshold, error)
	Insert(ctx context.Context, t *Threshold) error
	UpdateValues(ctx context.Context, metric string, minValue, maxValue *float64) (*Threshold, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context) ([]*Threshold, error) {
	return s.store.FindAll(ctx)
}

func (s *Service) FindByMetric(ctx context.Context, metric string) (*Threshold, error) {
	return s.store.FindByMetric(ctx, metric)
}

func (s *Service) Create(ctx context.Context, t *Threshold) error {
	existing, err := s.store.FindByMetric(ctx, t.Metric)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("threshold already exists for metric %s", t.Metric)
	}

	return s.store.Insert(ctx, t)
}

func (s *Service) UpdateValues(ctx context.Context, metric string, minValue, maxValue *float64) (*Threshold, error) {
	updated, err := s.store.UpdateValues(ctx, metric, minValue, maxValue)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrMetricNotFound
	}

	return updated, nil
}

// IsVitalOutOfRange reports whether any metric of the reading violates
// its configured bounds. Metrics without a threshold row never trip.
func (s *Service) IsVitalOutOfRange(ctx context.Context, vital *vitals.Vital) (bool, error) {
	checks := []struct {
		metric string
		value  float64
	}{
		{MetricHeartRate, vital.HeartRate},
		{MetricOxygenLevel, vital.OxygenLevel},
		{MetricBodyTemperature, vital.BodyTemperature},
	}

	for _, check := range checks {
		threshold, err := s.store.FindByMetric(ctx, check.metric)
		if err != nil {
			return false, err
		}
		if threshold == nil {
			continue
		}
		if Violates(threshold, check.value) {
			return true, nil
		}
	}

	return false, nil
}

// Violates reports whether value falls outside the threshold's bounds.
func Violates(t *Threshold, value float64) bool {
	if t.MinValue != nil && value < *t.MinValue {
		return true
	}
	if t.MaxValue != nil && value > *t.MaxValue {
		return true
	}
	return false
}

// SeedDefaults installs the stock thresholds on first boot; a non-empty
// table is left untouched.
func (s *Service) SeedDefaults(ctx context.Context) error {
	existing, err := s.store.FindAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	defaults := []*Threshold{
		{Metric: MetricHeartRate, MinValue: f64(60), MaxValue: f64(100), Description: "Heart rate (beats per minute)"},
		{Metric: MetricOxygenLevel, MinValue: f64(90), MaxValue: nil, Description: "Blood oxygen saturation (%)"},
		{Metric: MetricBodyTemperature, MinValue: f64(35), MaxValue: f64(38), Description: "Body temperature (Celsius)"},
	}
	for _, t := range defaults {
		if err := s.store.Insert(ctx, t); err != nil {
			return err
		}
	}

	return nil
}

func f64(v float64) *float64 {
	return &v
}
