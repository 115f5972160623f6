package alerts

import (
	"context"
	"database/sql"
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

const alertColumns = `id, device_id, vital_id, metric, value, threshold, triggered_at, acknowledged, acknowledged_at`

func (r *Repository) Insert(ctx context.Context, alert *Alert) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate alert id: %w", err)
	}
	alert.ID = id.String()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO alerts (id, device_id, vital_id, metric, value, threshold, triggered_at, acknowledged)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, alert.ID, alert.DeviceID, alert.VitalID, alert.Metric, alert.Value,
		alert.Threshold, alert.TriggeredAt, alert.Acknowledged)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}

	return nil
}

func (r *Repository) FindActive(ctx context.Context) ([]*Alert, error) {
	return r.query(ctx, `
		SELECT `+alertColumns+`
		FROM alerts
		WHERE NOT acknowledged
		ORDER BY triggered_at DESC
	`)
}

func (r *Repository) FindByDevice(ctx context.Context, deviceID string) ([]*Alert, error) {
	return r.query(ctx, `
		SELECT `+alertColumns+`
		FROM alerts
		WHERE device_id = $1
		ORDER BY triggered_at DESC
	`, deviceID)
}

func (r *Repository) FindSince(ctx context.Context, since time.Time) ([]*Alert, error) {
	return r.query(ctx, `
		SELECT `+alertColumns+`
		FROM alerts
		WHERE triggered_at >= $1
		ORDER BY triggered_at DESC
	`, since)
}

func (r *Repository) CountByDeviceSince(ctx context.Context, deviceID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM alerts
		WHERE device_id = $1 AND triggered_at >= $2
	`, deviceID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count alerts: %w", err)
	}

	return count, nil
}

// AcknowledgeAllForDevice marks every open alert of the device and
// returns the updated rows.
func (r *Repository) AcknowledgeAllForDevice(ctx context.Context, deviceID string, at time.Time) ([]*Alert, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE alerts
		SET acknowledged = TRUE, acknowledged_at = $2
		WHERE device_id = $1 AND NOT acknowledged
		RETURNING `+alertColumns+`
	`, deviceID, at)
	if err != nil {
		return nil, fmt.Errorf("acknowledge alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

func (r *Repository) query(ctx context.Context, sqlText string, args ...any) ([]*Alert, error) {
	rows, err := r.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

func scanAlerts(rows *sql.Rows) ([]*Alert, error) {
	result := make([]*Alert, 0)
	for rows.Next() {
		var alert Alert
		var ackAt sql.NullTime
		if err := rows.Scan(&alert.ID, &alert.DeviceID, &alert.VitalID, &alert.Metric,
			&alert.Value, &alert.Threshold, &alert.TriggeredAt, &alert.Acknowledged, &ackAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		if ackAt.Valid {
			at := ackAt.Time.UTC()
			alert.AcknowledgedAt = &at
		}
		result = append(result, &alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}

	return result, nil
}
