package thresholds

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

func (r *Repository) FindAll(ctx context.Context) ([]*Threshold, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, metric, min_value, max_value, description, updated_at
		FROM thresholds
		ORDER BY metric ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query thresholds: %w", err)
	}
	defer rows.Close()

	result := make([]*Threshold, 0)
	for rows.Next() {
		var t Threshold
		if err := rows.Scan(&t.ID, &t.Metric, &t.MinValue, &t.MaxValue, &t.Description, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan threshold: %w", err)
		}
		result = append(result, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate thresholds: %w", err)
	}

	return result, nil
}

func (r *Repository) FindByMetric(ctx context.Context, metric string) (*Threshold, error) {
	var t Threshold
	err := r.db.QueryRowContext(ctx, `
		SELECT id, metric, min_value, max_value, description, updated_at
		FROM thresholds
		WHERE metric = $1
	`, metric).Scan(&t.ID, &t.Metric, &t.MinValue, &t.MaxValue, &t.Description, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query threshold: %w", err)
	}

	return &t, nil
}

func (r *Repository) Insert(ctx context.Context, t *Threshold) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate threshold id: %w", err)
	}
	t.ID = id.String()
	t.UpdatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO thresholds (id, metric, min_value, max_value, description, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID, t.Metric, t.MinValue, t.MaxValue, t.Description, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert threshold: %w", err)
	}

	return nil
}

func (r *Repository) UpdateValues(ctx context.Context, metric string, minValue, maxValue *float64) (*Threshold, error) {
	var t Threshold
	err := r.db.QueryRowContext(ctx, `
		UPDATE thresholds
		SET min_value = $2, max_value = $3, updated_at = $4
		WHERE metric = $1
		RETURNING id, metric, min_value, max_value, description, updated_at
	`, metric, minValue, maxValue, time.Now().UTC()).
		Scan(&t.ID, &t.Metric, &t.MinValue, &t.MaxValue, &t.Description, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update threshold: %w", err)
	}

	return &t, nil
}
