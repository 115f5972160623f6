package users

import "time"

// User is a registered principal. Email is immutable once created;
// the password hash may be rotated without invalidating the row.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
