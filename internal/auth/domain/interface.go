package domain

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/Pelan2022/Koulio/internal/auth/domain UserRepository
//go:generate mockgen -destination=../../mocks/mock_session_repository.go -package=mocks github.com/Pelan2022/Koulio/internal/auth/domain SessionRepository

import (
	"context"
	"time"
)

// UserRepository persists accounts. Lookup methods return (nil, nil) when no
// row matches so callers can distinguish absence from storage failure.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	UpdateProfile(ctx context.Context, id string, fullName string, email string) error
	// RecordLoginFailure increments the failed-attempt counter and, once the
	// threshold is reached, sets the lock timestamp, all in one statement.
	// It returns the new counter value and the lock expiry, if any.
	RecordLoginFailure(ctx context.Context, id string, threshold int, lockDuration time.Duration) (int, *time.Time, error)
	RecordLoginSuccess(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*User, error)
}

// SessionRepository persists refresh-token state.
type SessionRepository interface {
	Store(ctx context.Context, session *Session) error
	// FindValid returns a session only if it is not revoked and not expired.
	FindValid(ctx context.Context, token string) (*Session, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	PurgeExpired(ctx context.Context) (int64, error)
}
