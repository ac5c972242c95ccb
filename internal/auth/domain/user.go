package domain

import "time"

type User struct {
	ID              string
	Email           string
	FullName        string
	PasswordHash    string
	Role            string
	IsActive        bool
	IsEmailVerified bool
	LoginAttempts   int
	LockedUntil     *time.Time
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsLocked reports whether the account is currently under a login lockout.
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && u.LockedUntil.After(time.Now())
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// Session is the server-side record of an issued refresh token.
type Session struct {
	ID        string
	UserID    string
	Token     string
	IPAddress string
	UserAgent string
	ExpiresAt time.Time
	IsRevoked bool
	RevokedAt *time.Time
	CreatedAt time.Time
}

// IsValid reports whether the session may still be exchanged for new tokens.
func (s *Session) IsValid() bool {
	return !s.IsRevoked && s.ExpiresAt.After(time.Now())
}
