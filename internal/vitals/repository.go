package vitals

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

func (r *Repository) Save(ctx context.Context, vital *Vital) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate vital id: %w", err)
	}
	vital.ID = id.String()
	if vital.CreatedAt.IsZero() {
		vital.CreatedAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO vitals (id, device_id, heart_rate, oxygen_level, body_temperature, steps, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, vital.ID, vital.DeviceID, vital.HeartRate, vital.OxygenLevel, vital.BodyTemperature, vital.Steps, vital.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert vital: %w", err)
	}

	return nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*Vital, error) {
	var vital Vital
	err := r.db.QueryRowContext(ctx, `
		SELECT id, device_id, heart_rate, oxygen_level, body_temperature, steps, created_at
		FROM vitals
		WHERE id = $1
	`, id).Scan(&vital.ID, &vital.DeviceID, &vital.HeartRate, &vital.OxygenLevel,
		&vital.BodyTemperature, &vital.Steps, &vital.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query vital: %w", err)
	}

	return &vital, nil
}

// FindRecentByDevice returns the newest readings first, capped at limit.
func (r *Repository) FindRecentByDevice(ctx context.Context, deviceID string, limit int) ([]*Vital, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, device_id, heart_rate, oxygen_level, body_temperature, steps, created_at
		FROM vitals
		WHERE device_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("query device vitals: %w", err)
	}
	defer rows.Close()

	return scanVitals(rows)
}

func (r *Repository) FindByDeviceSince(ctx context.Context, deviceID string, since time.Time) ([]*Vital, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, device_id, heart_rate, oxygen_level, body_temperature, steps, created_at
		FROM vitals
		WHERE device_id = $1 AND created_at >= $2
		ORDER BY created_at ASC
	`, deviceID, since)
	if err != nil {
		return nil, fmt.Errorf("query vitals since: %w", err)
	}
	defer rows.Close()

	return scanVitals(rows)
}

func scanVitals(rows *sql.Rows) ([]*Vital, error) {
	result := make([]*Vital, 0)
	for rows.Next() {
		var vital Vital
		if err := rows.Scan(&vital.ID, &vital.DeviceID, &vital.HeartRate, &vital.OxygenLevel,
			&vital.BodyTemperature, &vital.Steps, &vital.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vital: %w", err)
		}
		result = append(result, &vital)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vitals: %w", err)
	}

	return result, nil
}
