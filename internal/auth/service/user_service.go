package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Pelan2022/Koulio/config"
	"github.com/Pelan2022/Koulio/internal/audit"
	"github.com/Pelan2022/Koulio/internal/auth/domain"
	"github.com/Pelan2022/Koulio/internal/auth/dto"
	autherror "github.com/Pelan2022/Koulio/internal/errors"
	"github.com/Pelan2022/Koulio/pkg/constant"
)

// UserService orchestrates the authentication flows. Each flow is atomic
// from the caller's perspective: no observable intermediate state is
// reachable through the public API even though the underlying writes are
// separate statements.
type UserService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	hasher   PasswordHasher
	tokens   TokenGenerator
	auditor  audit.Recorder
	authCfg  config.AuthConfig
	log      *zap.Logger
}

func NewUserService(
	users domain.UserRepository,
	sessions domain.SessionRepository,
	hasher PasswordHasher,
	tokens TokenGenerator,
	auditor audit.Recorder,
	authCfg config.AuthConfig,
	log *zap.Logger,
) *UserService {
	return &UserService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		auditor:  auditor,
		authCfg:  authCfg,
		log:      log,
	}
}

func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthOutput, error) {
	email, err := ValidateEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: passwordHash,
		Role:         constant.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	out, err := s.issueTokens(ctx, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("email", user.Email))
	s.auditor.Record(ctx, audit.Entry{
		UserID:       &user.ID,
		Action:       audit.ActionRegister,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   user.ID,
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
	})
	return out, nil
}

func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthOutput, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		// Same error as a wrong password so account existence never leaks.
		s.auditor.Record(ctx, audit.Entry{
			Action:       audit.ActionLoginFailed,
			ResourceType: audit.ResourceTypeUser,
			Details:      map[string]interface{}{"reason": "unknown or inactive account"},
			IPAddress:    input.IPAddress,
			UserAgent:    input.UserAgent,
		})
		return nil, autherror.ErrInvalidCredentials
	}

	// Locked accounts are rejected before password verification so the
	// expensive hash is never computed for them.
	if user.IsLocked() {
		s.auditor.Record(ctx, audit.Entry{
			UserID:       &user.ID,
			Action:       audit.ActionAccountLocked,
			ResourceType: audit.ResourceTypeUser,
			ResourceID:   user.ID,
			IPAddress:    input.IPAddress,
			UserAgent:    input.UserAgent,
		})
		return nil, autherror.ErrAccountLocked
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		attempts, lockedUntil, ferr := s.users.RecordLoginFailure(ctx, user.ID,
			s.authCfg.LockoutThreshold, s.authCfg.LockoutDuration)
		if ferr != nil {
			s.log.Error("failed to record login failure", zap.String("user_id", user.ID), zap.Error(ferr))
		}
		s.log.Warn("invalid password attempt",
			zap.String("user_id", user.ID), zap.Int("attempts", attempts))
		entry := audit.Entry{
			UserID:       &user.ID,
			Action:       audit.ActionLoginFailed,
			ResourceType: audit.ResourceTypeUser,
			ResourceID:   user.ID,
			Details:      map[string]interface{}{"attempts": attempts},
			IPAddress:    input.IPAddress,
			UserAgent:    input.UserAgent,
		}
		if lockedUntil != nil && lockedUntil.After(time.Now()) {
			entry.Action = audit.ActionAccountLocked
		}
		s.auditor.Record(ctx, entry)
		return nil, autherror.ErrInvalidCredentials
	}

	if err := s.users.RecordLoginSuccess(ctx, user.ID); err != nil {
		return nil, err
	}
	now := time.Now()
	user.LastLoginAt = &now
	user.LoginAttempts = 0
	user.LockedUntil = nil

	out, err := s.issueTokens(ctx, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID), zap.String("ip", input.IPAddress))
	s.auditor.Record(ctx, audit.Entry{
		UserID:       &user.ID,
		Action:       audit.ActionLogin,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   user.ID,
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
	})
	return out, nil
}

func (s *UserService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenOutput, error) {
	claims, err := s.tokens.VerifyRefresh(input.RefreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.FindValid(ctx, input.RefreshToken)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, autherror.ErrSessionNotFound
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, autherror.ErrUserInactive
	}

	// Rotate: the presented token is consumed and replaced. A racing use of
	// the old token fails on its next attempt.
	if err := s.sessions.Revoke(ctx, input.RefreshToken); err != nil {
		return nil, err
	}

	accessToken, _, err := s.tokens.IssueAccess(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExpiresAt, err := s.tokens.IssueRefresh(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	if err := s.storeSession(ctx, user.ID, refreshToken, refreshExpiresAt, input.IPAddress, input.UserAgent); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID:       &user.ID,
		Action:       audit.ActionTokenRefresh,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   user.ID,
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
	})
	return &dto.TokenOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTokenTTL().Seconds()),
	}, nil
}

// Logout revokes the presented session, or every session of the account
// when no token is given. It succeeds even if nothing was revoked.
func (s *UserService) Logout(ctx context.Context, userID string, input dto.LogoutInput) error {
	var err error
	if input.RefreshToken != "" {
		err = s.sessions.Revoke(ctx, input.RefreshToken)
	} else {
		err = s.sessions.RevokeAllForUser(ctx, userID)
	}
	if err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID:       &userID,
		Action:       audit.ActionLogout,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   userID,
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
	})
	return nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (*dto.UserOutput, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}
	return dto.NewUserOutput(user), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, input dto.UpdateProfileInput) (*dto.UserOutput, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		fullName = user.FullName
	}

	email := user.Email
	if input.Email != "" && !strings.EqualFold(input.Email, user.Email) {
		email, err = ValidateEmail(input.Email)
		if err != nil {
			return nil, err
		}
		existing, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, autherror.ErrEmailAlreadyInUse
		}
	}

	if err := s.users.UpdateProfile(ctx, userID, fullName, email); err != nil {
		return nil, err
	}
	user.FullName = fullName
	user.Email = email
	user.UpdatedAt = time.Now()

	s.auditor.Record(ctx, audit.Entry{
		UserID:       &userID,
		Action:       audit.ActionProfileUpdate,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   userID,
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
	})
	return dto.NewUserOutput(user), nil
}

// ChangePassword updates the hash and revokes every session of the account,
// forcing a re-login everywhere.
func (s *UserService) ChangePassword(ctx context.Context, userID string, input dto.ChangePasswordInput) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrUserNotFound
	}

	if !s.hasher.Verify(input.CurrentPassword, user.PasswordHash) {
		return autherror.ErrInvalidCredentials
	}
	if err := ValidatePassword(input.NewPassword); err != nil {
		return err
	}

	passwordHash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return err
	}
	if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}

	s.log.Info("password changed", zap.String("user_id", userID))
	s.auditor.Record(ctx, audit.Entry{
		UserID:       &userID,
		Action:       audit.ActionPasswordChange,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   userID,
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
	})
	return nil
}

// DeleteAccount removes the account after re-verifying the password.
// Session rows go with it via the cascade; the audit entry is recorded
// without an account reference since the row is gone.
func (s *UserService) DeleteAccount(ctx context.Context, userID string, input dto.DeleteAccountInput) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrUserNotFound
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return autherror.ErrInvalidCredentials
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.log.Info("user account deleted", zap.String("user_id", userID), zap.String("email", user.Email))
	s.auditor.Record(ctx, audit.Entry{
		Action:       audit.ActionAccountDelete,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   userID,
		Details:      map[string]interface{}{"email": user.Email},
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
	})
	return nil
}

// ListUsers returns paginated public account views for the admin surface.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*dto.UserOutput, error) {
	if limit <= 0 {
		limit = constant.DefaultPageLimit
	}
	if limit > constant.MaxPageLimit {
		limit = constant.MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.UserOutput, 0, len(users))
	for _, u := range users {
		out = append(out, dto.NewUserOutput(u))
	}
	return out, nil
}

// ForceLogout revokes every session of the given account (admin action).
func (s *UserService) ForceLogout(ctx context.Context, targetUserID string) error {
	user, err := s.users.GetByID(ctx, targetUserID)
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrUserNotFound
	}
	return s.sessions.RevokeAllForUser(ctx, targetUserID)
}

// AuthenticateAccess resolves a bearer access token to a live account.
// Deleted, deactivated and locked accounts are rejected even while their
// previously issued tokens are still cryptographically valid.
func (s *UserService) AuthenticateAccess(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.VerifyAccess(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, autherror.ErrUserInactive
	}
	if user.IsLocked() {
		return nil, autherror.ErrAccountLocked
	}
	return user, nil
}

func (s *UserService) issueTokens(ctx context.Context, user *domain.User, ip, userAgent string) (*dto.AuthOutput, error) {
	accessToken, _, err := s.tokens.IssueAccess(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExpiresAt, err := s.tokens.IssueRefresh(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	if err := s.storeSession(ctx, user.ID, refreshToken, refreshExpiresAt, ip, userAgent); err != nil {
		return nil, err
	}

	return &dto.AuthOutput{
		User:         dto.NewUserOutput(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *UserService) storeSession(ctx context.Context, userID, token string, expiresAt time.Time, ip, userAgent string) error {
	return s.sessions.Store(ctx, &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		IPAddress: ip,
		UserAgent: userAgent,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	})
}
