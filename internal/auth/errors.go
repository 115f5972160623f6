package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrEmailTaken       = errors.New("email already in use")
	ErrUserNotFound     = errors.New("user does not exist")
	ErrInvalidToken     = errors.New("invalid or expired token")
)

// AccountLockedError reports a lockout and when it lifts.
type AccountLockedError struct {
	Until time.Time
}

func (e AccountLockedError) Error() string {
	return "account is locked due to multiple failed login attempts"
}

// InvalidCredentialsError carries the attempts left before lockout.
type InvalidCredentialsError struct {
	Remaining int
}

func (e InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials, %d attempt(s) remaining", e.Remaining)
}
