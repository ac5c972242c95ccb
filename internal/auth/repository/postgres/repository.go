package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Pelan2022/Koulio/internal/auth/domain"
)

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type PostgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, full_name, password_hash, role, is_active, is_email_verified,
		login_attempts, locked_until, last_login_at, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, full_name, password_hash, role, is_active, is_email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, user.ID, user.Email, user.FullName, user.PasswordHash, user.Role,
		user.IsActive, user.IsEmailVerified, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE lower(email) = lower($1)
		LIMIT 1
	`, email)
	return scanUser(row)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
		LIMIT 1
	`, id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.PasswordHash, &user.Role,
		&user.IsActive, &user.IsEmailVerified, &user.LoginAttempts, &user.LockedUntil,
		&user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_hash = $1, updated_at = now()
		WHERE id = $2
	`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, fullName string, email string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET full_name = $1, email = $2, updated_at = now()
		WHERE id = $3
	`, fullName, email, id)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RecordLoginFailure(ctx context.Context, id string, threshold int, lockDuration time.Duration) (int, *time.Time, error) {
	lockedUntil := time.Now().Add(lockDuration)

	row := r.db.QueryRow(ctx, `
		UPDATE users
		SET login_attempts = login_attempts + 1,
		    locked_until = CASE
		        WHEN login_attempts + 1 >= $1 THEN $2
		        ELSE locked_until
		    END
		WHERE id = $3
		RETURNING login_attempts, locked_until
	`, threshold, lockedUntil, id)

	var attempts int
	var lock *time.Time
	if err := row.Scan(&attempts, &lock); err != nil {
		return 0, nil, fmt.Errorf("failed to record login failure: %w", err)
	}
	return attempts, lock, nil
}

func (r *PostgresRepository) RecordLoginSuccess(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET login_attempts = 0, locked_until = NULL, last_login_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to record login success: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Email, &user.FullName, &user.PasswordHash, &user.Role,
			&user.IsActive, &user.IsEmailVerified, &user.LoginAttempts, &user.LockedUntil,
			&user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

const sessionColumns = `id, user_id, token, ip_address, user_agent, expires_at, is_revoked, revoked_at, created_at`

func (r *PostgresRepository) Store(ctx context.Context, s *domain.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (id, user_id, token, ip_address, user_agent, expires_at, is_revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.UserID, s.Token, s.IPAddress, s.UserAgent, s.ExpiresAt, s.IsRevoked, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindValid(ctx context.Context, token string) (*domain.Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE token = $1 AND is_revoked = FALSE AND expires_at > now()
		LIMIT 1
	`, token)

	var s domain.Session
	err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.IPAddress, &s.UserAgent,
		&s.ExpiresAt, &s.IsRevoked, &s.RevokedAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &s, nil
}

// Revoke marks the session revoked; revoking an already revoked session is
// a no-op.
func (r *PostgresRepository) Revoke(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE sessions
		SET is_revoked = TRUE, revoked_at = now()
		WHERE token = $1 AND is_revoked = FALSE
	`, token)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE sessions
		SET is_revoked = TRUE, revoked_at = now()
		WHERE user_id = $1 AND is_revoked = FALSE
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke sessions for user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM sessions
		WHERE expires_at < now() OR is_revoked = TRUE
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

var (
	_ domain.UserRepository    = (*PostgresRepository)(nil)
	_ domain.SessionRepository = (*PostgresRepository)(nil)
)
