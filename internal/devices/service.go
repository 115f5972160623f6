package devices

import (
	"context"
	"errors"
	"time"

	"healthmonitor/internal/alerts"
	"healthmonitor/internal/live"
	"healthmonitor/internal/thresholds"
	"healthmonitor/internal/vitals"
)

var (
	ErrDeviceExists   = errors.New("device already registered")
	ErrDeviceNotFound = errors.New("device not found or inactive")
)

// Store is the device persistence contract.
type Store interface {
	FindAllActive(ctx context.Context) ([]*Device, error)
	FindByDeviceID(ctx context.Context, deviceID string) (*Device, error)
	Insert(ctx context.Context, device *Device) error
	SetLastVital(ctx context.Context, id, vitalID string) error
	Deactivate(ctx context.Context, id string) error
}

// VitalStore is the reading persistence contract.
type VitalStore interface {
	Save(ctx context.Context, vital *vitals.Vital) error
	FindByID(ctx context.Context, id string) (*vitals.Vital, error)
	FindRecentByDevice(ctx context.Context, deviceID string, limit int) ([]*vitals.Vital, error)
}

type Service struct {
	store      Store
	vitalStore VitalStore
	thresholds *thresholds.Service
	alerts     *alerts.Service
	feed       *live.Feed
}

func NewService(store Store, vitalStore VitalStore, thresholdService *thresholds.Service, alertService *alerts.Service, feed *live.Feed) *Service {
	return &Service{
		store:      store,
		vitalStore: vitalStore,
		thresholds: thresholdService,
		alerts:     alertService,
		feed:       feed,
	}
}

func (s *Service) Register(ctx context.Context, deviceID string) (*Device, error) {
	existing, err := s.store.FindByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDeviceExists
	}

	device := &Device{DeviceID: deviceID, Active: true}
	if err := s.store.Insert(ctx, device); err != nil {
		return nil, err
	}

	return device, nil
}

// Deactivate soft-deletes the device; its readings remain.
func (s *Service) Deactivate(ctx context.Context, deviceID string) error {
	device, err := s.store.FindByDeviceID(ctx, deviceID)
	if err != nil {
		return err
	}
	if device == nil {
		return ErrDeviceNotFound
	}

	return s.store.Deactivate(ctx, device.ID)
}

// Ingest stores a reading, bumps the device's last-vital pointer,
// raises alerts for out-of-range metrics, and fans the reading out to
// live subscribers.
func (s *Service) Ingest(ctx context.Context, vital *vitals.Vital) (*vitals.Vital, error) {
	device, err := s.store.FindByDeviceID(ctx, vital.DeviceID)
	if err != nil {
		return nil, err
	}
	if device == nil || !device.Active {
		return nil, ErrDeviceNotFound
	}

	vital.CreatedAt = time.Now().UTC()
	if err := s.vitalStore.Save(ctx, vital); err != nil {
		return nil, err
	}
	if err := s.store.SetLastVital(ctx, device.ID, vital.ID); err != nil {
		return nil, err
	}

	if _, err := s.alerts.CreateFromVital(ctx, vital); err != nil {
		return nil, err
	}

	if s.feed != nil {
		s.feed.Publish(vital)
	}

	return vital, nil
}

func (s *Service) ListWithLatestVital(ctx context.Context) ([]*Overview, error) {
	devices, err := s.store.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*Overview, 0, len(devices))
	for _, device := range devices {
		overview := &Overview{DeviceID: device.DeviceID, Active: device.Active}
		if device.LastVitalID != nil {
			vital, err := s.vitalStore.FindByID(ctx, *device.LastVitalID)
			if err != nil {
				return nil, err
			}
			overview.LastVital = vital
		}
		result = append(result, overview)
	}

	return result, nil
}

func (s *Service) ListWithStatus(ctx context.Context) ([]*Status, error) {
	devices, err := s.store.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*Status, 0, len(devices))
	for _, device := range devices {
		if device.LastVitalID == nil {
			result = append(result, &Status{DeviceID: device.DeviceID, Status: StatusNoData})
			continue
		}

		vital, err := s.vitalStore.FindByID(ctx, *device.LastVitalID)
		if err != nil {
			return nil, err
		}
		if vital == nil {
			result = append(result, &Status{DeviceID: device.DeviceID, Status: StatusNoData})
			continue
		}

		outOfRange, err := s.thresholds.IsVitalOutOfRange(ctx, vital)
		if err != nil {
			return nil, err
		}
		status := StatusOK
		if outOfRange {
			status = StatusAlert
		}

		result = append(result, &Status{
			DeviceID:        device.DeviceID,
			Status:          status,
			HeartRate:       &vital.HeartRate,
			OxygenLevel:     &vital.OxygenLevel,
			BodyTemperature: &vital.BodyTemperature,
			Steps:           &vital.Steps,
			LastUpdate:      &vital.CreatedAt,
		})
	}

	return result, nil
}

// History returns the device's most recent readings, newest first.
func (s *Service) History(ctx context.Context, deviceID string, limit int) ([]*vitals.Vital, error) {
	device, err := s.store.FindByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, ErrDeviceNotFound
	}

	return s.vitalStore.FindRecentByDevice(ctx, deviceID, limit)
}

// AcknowledgeAlerts clears the device's open alerts.
func (s *Service) AcknowledgeAlerts(ctx context.Context, deviceID string) ([]*alerts.Alert, error) {
	device, err := s.store.FindByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, ErrDeviceNotFound
	}

	return s.alerts.AcknowledgeAllForDevice(ctx, deviceID)
}
