package alerts

import (
	"context"
	"fmt"
	"time"

	"healthmonitor/internal/live"
	"healthmonitor/internal/thresholds"
	"healthmonitor/internal/vitals"
)

// Store is the persistence contract for alerts.
type Store interface {
	Insert(ctx context.Context, alert *Alert) error
	FindActive(ctx context.Context) ([]*Alert, error)
	FindByDevice(ctx context.Context, deviceID string) ([]*Alert, error)
	FindSince(ctx context.Context, since time.Time) ([]*Alert, error)
	CountByDeviceSince(ctx context.Context, deviceID string, since time.Time) (int64, error)
	AcknowledgeAllForDevice(ctx context.Context, deviceID string, at time.Time) ([]*Alert, error)
}

// ThresholdSource looks up the configured range for a metric.
type ThresholdSource interface {
	FindByMetric(ctx context.Context, metric string) (*thresholds.Threshold, error)
}

type Service struct {
	store      Store
	thresholds ThresholdSource
	feed       *live.Feed
}

func NewService(store Store, thresholdSource ThresholdSource, feed *live.Feed) *Service {
	return &Service{store: store, thresholds: thresholdSource, feed: feed}
}

func (s *Service) Active(ctx context.Context) ([]*Alert, error) {
	return s.store.FindActive(ctx)
}

func (s *Service) ByDevice(ctx context.Context, deviceID string) ([]*Alert, error) {
	return s.store.FindByDevice(ctx, deviceID)
}

func (s *Service) History(ctx context.Context, hours int) ([]*Alert, error) {
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	return s.store.FindSince(ctx, since)
}

func (s *Service) CountByDeviceSince(ctx context.Context, deviceID string, since time.Time) (int64, error) {
	return s.store.CountByDeviceSince(ctx, deviceID, since)
}

func (s *Service) AcknowledgeAllForDevice(ctx context.Context, deviceID string) ([]*Alert, error) {
	return s.store.AcknowledgeAllForDevice(ctx, deviceID, time.Now().UTC())
}

// CreateFromVital raises one alert per out-of-range metric of the
// reading and publishes each to the live feed.
func (s *Service) CreateFromVital(ctx context.Context, vital *vitals.Vital) ([]*Alert, error) {
	checks := []struct {
		metric string
		value  float64
	}{
		{thresholds.MetricHeartRate, vital.HeartRate},
		{thresholds.MetricOxygenLevel, vital.OxygenLevel},
		{thresholds.MetricBodyTemperature, vital.BodyTemperature},
	}

	created := make([]*Alert, 0)
	for _, check := range checks {
		threshold, err := s.thresholds.FindByMetric(ctx, check.metric)
		if err != nil {
			return created, err
		}
		if threshold == nil {
			continue
		}

		var bound string
		switch {
		case threshold.MaxValue != nil && check.value > *threshold.MaxValue:
			bound = fmt.Sprintf("ABOVE %g", *threshold.MaxValue)
		case threshold.MinValue != nil && check.value < *threshold.MinValue:
			bound = fmt.Sprintf("BELOW %g", *threshold.MinValue)
		default:
			continue
		}

		alert := &Alert{
			DeviceID:    vital.DeviceID,
			VitalID:     vital.ID,
			Metric:      check.metric,
			Value:       check.value,
			Threshold:   bound,
			TriggeredAt: vital.CreatedAt,
		}
		if err := s.store.Insert(ctx, alert); err != nil {
			return created, err
		}
		created = append(created, alert)

		if s.feed != nil {
			s.feed.Publish(alert)
		}
	}

	return created, nil
}
