package thresholds

import (
	"context"
	"errors"
	"testing"

	"healthmonitor/internal/vitals"
)

type memoryStore struct {
	byMetric map[string]*Threshold
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byMetric: make(map[string]*Threshold)}
}

func (s *memoryStore) FindAll(_ context.Context) ([]*Threshold, error) {
	all := make([]*Threshold, 0, len(s.byMetric))
	for _, t := range s.byMetric {
		all = append(all, t)
	}
	return all, nil
}

func (s *memoryStore) FindByMetric(_ context.Context, metric string) (*Threshold, error) {
	return s.byMetric[metric], nil
}

func (s *memoryStore) Insert(_ context.Context, t *Threshold) error {
	s.byMetric[t.Metric] = t
	return nil
}

func (s *memoryStore) UpdateValues(_ context.Context, metric string, minValue, maxValue *float64) (*Threshold, error) {
	t, ok := s.byMetric[metric]
	if !ok {
		return nil, nil
	}
	t.MinValue = minValue
	t.MaxValue = maxValue
	return t, nil
}

func TestSeedDefaultsPopulatesEmptyStore(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store)

	if err := service.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for _, metric := range []string{MetricHeartRate, MetricOxygenLevel, MetricBodyTemperature} {
		if store.byMetric[metric] == nil {
			t.Fatalf("expected default threshold for %s", metric)
		}
	}

	hr := store.byMetric[MetricHeartRate]
	if *hr.MinValue != 60 || *hr.MaxValue != 100 {
		t.Fatalf("unexpected heart rate defaults: %v..%v", *hr.MinValue, *hr.MaxValue)
	}
	if o2 := store.byMetric[MetricOxygenLevel]; o2.MaxValue != nil {
		t.Fatal("oxygen level should have no upper bound")
	}
}

func TestSeedDefaultsLeavesExistingRows(t *testing.T) {
	store := newMemoryStore()
	custom := &Threshold{Metric: MetricHeartRate, MinValue: f64(50), MaxValue: f64(150)}
	store.byMetric[MetricHeartRate] = custom

	service := NewService(store)
	if err := service.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if len(store.byMetric) != 1 {
		t.Fatalf("non-empty store must not be reseeded, got %d rows", len(store.byMetric))
	}
	if *store.byMetric[MetricHeartRate].MinValue != 50 {
		t.Fatal("existing threshold was overwritten")
	}
}

func TestUpdateValuesUnknownMetric(t *testing.T) {
	service := NewService(newMemoryStore())

	_, err := service.UpdateValues(context.Background(), MetricHeartRate, f64(50), f64(120))
	if !errors.Is(err, ErrMetricNotFound) {
		t.Fatalf("expected ErrMetricNotFound, got %v", err)
	}
}

func TestViolates(t *testing.T) {
	cases := []struct {
		name      string
		threshold *Threshold
		value     float64
		want      bool
	}{
		{"within bounds", &Threshold{MinValue: f64(60), MaxValue: f64(100)}, 80, false},
		{"at lower bound", &Threshold{MinValue: f64(60), MaxValue: f64(100)}, 60, false},
		{"below min", &Threshold{MinValue: f64(60), MaxValue: f64(100)}, 59, true},
		{"above max", &Threshold{MinValue: f64(60), MaxValue: f64(100)}, 101, true},
		{"no upper bound", &Threshold{MinValue: f64(90)}, 100, false},
		{"below with no upper bound", &Threshold{MinValue: f64(90)}, 85, true},
		{"unbounded", &Threshold{}, 9999, false},
	}

	for _, tc := range cases {
		if got := Violates(tc.threshold, tc.value); got != tc.want {
			t.Errorf("%s: Violates = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsVitalOutOfRange(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store)
	if err := service.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	healthy := &vitals.Vital{HeartRate: 70, OxygenLevel: 97, BodyTemperature: 36.6}
	if out, err := service.IsVitalOutOfRange(context.Background(), healthy); err != nil || out {
		t.Fatalf("healthy reading flagged: out=%v err=%v", out, err)
	}

	feverish := &vitals.Vital{HeartRate: 70, OxygenLevel: 97, BodyTemperature: 39.2}
	if out, err := service.IsVitalOutOfRange(context.Background(), feverish); err != nil || !out {
		t.Fatalf("feverish reading not flagged: out=%v err=%v", out, err)
	}
}
