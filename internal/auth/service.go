package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"healthmonitor/internal/users"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenPair is the issued credential pair. The access token is never
// persisted; the refresh token is tracked in the TokenStore.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service orchestrates register, login, refresh and logout. It owns the
// TokenStore: nothing else writes credential records.
type Service struct {
	users    UserStore
	tokens   TokenStore
	codec    *TokenCodec
	hasher   *PasswordHasher
	attempts *AttemptTracker

	accessTTL  time.Duration
	refreshTTL time.Duration

	// serializes revoke-then-save per identity so concurrent logins
	// cannot revoke each other's fresh record
	userLocks keyedMutex
}

func NewService(userStore UserStore, tokens TokenStore, codec *TokenCodec, hasher *PasswordHasher, attempts *AttemptTracker) *Service {
	return &Service{
		users:      userStore,
		tokens:     tokens,
		codec:      codec,
		hasher:     hasher,
		attempts:   attempts,
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
	}
}

func (s *Service) WithTokenTTLs(accessTTL, refreshTTL time.Duration) *Service {
	if accessTTL > 0 {
		s.accessTTL = accessTTL
	}
	if refreshTTL > 0 {
		s.refreshTTL = refreshTTL
	}
	return s
}

func (s *Service) Register(ctx context.Context, email, password, confirmPassword string) (TokenPair, error) {
	if password != confirmPassword {
		return TokenPair{}, ErrPasswordMismatch
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return TokenPair{}, err
	}
	if existing != nil {
		return TokenPair{}, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return TokenPair{}, err
	}

	user := &users.User{Email: email, PasswordHash: hash}
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return TokenPair{}, ErrEmailTaken
		}
		return TokenPair{}, err
	}

	pair, err := s.issuePair(email)
	if err != nil {
		return TokenPair{}, err
	}

	record := &TokenRecord{UserID: user.ID, TokenHash: HashToken(pair.RefreshToken)}
	if err := s.tokens.Save(ctx, record); err != nil {
		return TokenPair{}, err
	}

	return pair, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return TokenPair{}, err
	}
	if user == nil {
		return TokenPair{}, ErrUserNotFound
	}

	if s.attempts.IsBlocked(email) {
		until, _ := s.attempts.LockedUntil(email)
		return TokenPair{}, AccountLockedError{Until: until}
	}

	if err := s.hasher.Verify(password, user.PasswordHash); err != nil {
		s.attempts.RecordFailure(email)
		remaining := s.attempts.RemainingAttempts(email)
		if remaining > 0 {
			return TokenPair{}, InvalidCredentialsError{Remaining: remaining}
		}
		// the failure that trips the lock reports the lock
		until, _ := s.attempts.LockedUntil(email)
		return TokenPair{}, AccountLockedError{Until: until}
	}

	s.attempts.RecordSuccess(email)

	pair, err := s.issuePair(email)
	if err != nil {
		return TokenPair{}, err
	}

	unlock := s.userLocks.lock(user.ID)
	defer unlock()

	if err := s.revokeAll(ctx, user.ID); err != nil {
		return TokenPair{}, err
	}
	record := &TokenRecord{UserID: user.ID, TokenHash: HashToken(pair.RefreshToken)}
	if err := s.tokens.Save(ctx, record); err != nil {
		return TokenPair{}, err
	}

	return pair, nil
}

// Refresh issues a new access token. The presented refresh token is
// returned unchanged: rotation happens only on login.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	subject, err := s.codec.Verify(refreshToken, KindRefresh)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}

	user, err := s.users.FindByEmail(ctx, subject)
	if err != nil {
		return TokenPair{}, err
	}
	if user == nil {
		return TokenPair{}, ErrUserNotFound
	}

	record, err := s.tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if record == nil || record.Revoked || record.Expired {
		return TokenPair{}, ErrInvalidToken
	}

	access, err := s.codec.Issue(subject, KindAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}

// Logout revokes the presented refresh token. Unknown tokens succeed
// silently so logout stays idempotent.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	record, err := s.tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}

	record.Revoked = true
	record.Expired = true
	return s.tokens.Save(ctx, record)
}

func (s *Service) issuePair(email string) (TokenPair, error) {
	access, err := s.codec.Issue(email, KindAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.codec.Issue(email, KindRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) revokeAll(ctx context.Context, userID string) error {
	active, err := s.tokens.FindActiveByUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		return nil
	}

	for _, record := range active {
		record.Revoked = true
		record.Expired = true
	}
	return s.tokens.SaveAll(ctx, active)
}

// keyedMutex hands out one mutex per key; different keys never block
// each other.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
