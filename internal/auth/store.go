package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"healthmonitor/internal/users"
)

// TokenRecord is the persisted form of an issued refresh credential.
// A credential is usable for renewal iff a record exists and both flags
// are false.
type TokenRecord struct {
	ID        string
	UserID    string
	TokenHash string
	Revoked   bool
	Expired   bool
	CreatedAt time.Time
}

// TokenStore is the credential-record persistence contract. FindByToken
// takes the raw credential string; implementations match on its hash.
type TokenStore interface {
	Save(ctx context.Context, record *TokenRecord) error
	SaveAll(ctx context.Context, records []*TokenRecord) error
	FindByToken(ctx context.Context, rawToken string) (*TokenRecord, error)
	FindActiveByUser(ctx context.Context, userID string) ([]*TokenRecord, error)
}

// UserStore is the identity persistence contract consumed by the auth
// service. FindByEmail returns (nil, nil) when no identity matches.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	Save(ctx context.Context, user *users.User) error
}

// HashToken is the stored representation of a raw credential string.
// Raw tokens never touch the database.
func HashToken(rawToken string) string {
	hash := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(hash[:])
}
