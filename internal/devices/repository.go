package devices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindAllActive(ctx context.Context) ([]*Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, device_id, is_active, last_vital_id, created_at, updated_at
		FROM devices
		WHERE is_active
		ORDER BY device_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query active devices: %w", err)
	}
	defer rows.Close()

	result := make([]*Device, 0)
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}

	return result, nil
}

func (r *Repository) FindByDeviceID(ctx context.Context, deviceID string) (*Device, error) {
	var device Device
	var lastVitalID sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, device_id, is_active, last_vital_id, created_at, updated_at
		FROM devices
		WHERE device_id = $1
	`, deviceID).Scan(&device.ID, &device.DeviceID, &device.Active, &lastVitalID,
		&device.CreatedAt, &device.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query device: %w", err)
	}
	if lastVitalID.Valid {
		device.LastVitalID = &lastVitalID.String
	}

	return &device, nil
}

func (r *Repository) Insert(ctx context.Context, device *Device) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate device id: %w", err)
	}
	device.ID = id.String()

	now := time.Now().UTC()
	device.CreatedAt = now
	device.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO devices (id, device_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, device.ID, device.DeviceID, device.Active, device.CreatedAt, device.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert device: %w", err)
	}

	return nil
}

func (r *Repository) SetLastVital(ctx context.Context, id, vitalID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE devices
		SET last_vital_id = $2, updated_at = $3
		WHERE id = $1
	`, id, vitalID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set last vital: %w", err)
	}

	return nil
}

func (r *Repository) Deactivate(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE devices
		SET is_active = FALSE, updated_at = $2
		WHERE id = $1
	`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate device: %w", err)
	}

	return nil
}

func scanDevice(rows *sql.Rows) (*Device, error) {
	var device Device
	var lastVitalID sql.NullString
	if err := rows.Scan(&device.ID, &device.DeviceID, &device.Active, &lastVitalID,
		&device.CreatedAt, &device.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan device: %w", err)
	}
	if lastVitalID.Valid {
		device.LastVitalID = &lastVitalID.String
	}

	return &device, nil
}
