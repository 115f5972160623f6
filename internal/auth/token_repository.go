package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TokenRepository is the Postgres-backed TokenStore.
type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Save(ctx context.Context, record *TokenRecord) error {
	if record.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate refresh token id: %w", err)
		}
		record.ID = id.String()
		if record.CreatedAt.IsZero() {
			record.CreatedAt = time.Now().UTC()
		}

		_, err = r.db.ExecContext(ctx, `
			INSERT INTO auth_refresh_tokens (id, user_id, token_hash, revoked, expired, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, record.ID, record.UserID, record.TokenHash, record.Revoked, record.Expired, record.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert refresh token: %w", err)
		}
		return nil
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE auth_refresh_tokens
		SET revoked = $2, expired = $3
		WHERE id = $1
	`, record.ID, record.Revoked, record.Expired)
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}

	return nil
}

func (r *TokenRepository) SaveAll(ctx context.Context, records []*TokenRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save all tx: %w", err)
	}
	defer tx.Rollback()

	for _, record := range records {
		if _, err := tx.ExecContext(ctx, `
			UPDATE auth_refresh_tokens
			SET revoked = $2, expired = $3
			WHERE id = $1
		`, record.ID, record.Revoked, record.Expired); err != nil {
			return fmt.Errorf("update refresh token %s: %w", record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save all tx: %w", err)
	}

	return nil
}

func (r *TokenRepository) FindByToken(ctx context.Context, rawToken string) (*TokenRecord, error) {
	var record TokenRecord
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, revoked, expired, created_at
		FROM auth_refresh_tokens
		WHERE token_hash = $1
	`, HashToken(rawToken)).Scan(
		&record.ID, &record.UserID, &record.TokenHash,
		&record.Revoked, &record.Expired, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query refresh token: %w", err)
	}

	return &record, nil
}

func (r *TokenRepository) FindActiveByUser(ctx context.Context, userID string) ([]*TokenRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, token_hash, revoked, expired, created_at
		FROM auth_refresh_tokens
		WHERE user_id = $1 AND NOT revoked AND NOT expired
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query active refresh tokens: %w", err)
	}
	defer rows.Close()

	records := make([]*TokenRecord, 0)
	for rows.Next() {
		var record TokenRecord
		if err := rows.Scan(
			&record.ID, &record.UserID, &record.TokenHash,
			&record.Revoked, &record.Expired, &record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan refresh token: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refresh tokens: %w", err)
	}

	return records, nil
}

// DeleteStale removes revoked or expired records created before the
// cutoff, at most batchSize per call.
func (r *TokenRepository) DeleteStale(ctx context.Context, before time.Time, batchSize int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM auth_refresh_tokens
		WHERE id IN (
			SELECT id FROM auth_refresh_tokens
			WHERE (revoked OR expired) AND created_at < $1
			LIMIT $2
		)
	`, before, batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete stale refresh tokens: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted refresh tokens: %w", err)
	}

	return deleted, nil
}
