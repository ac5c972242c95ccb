package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Pelan2022/Koulio/config"
	"github.com/Pelan2022/Koulio/internal/auth/domain"
	"github.com/Pelan2022/Koulio/internal/auth/dto"
	"github.com/Pelan2022/Koulio/internal/auth/service"
	autherror "github.com/Pelan2022/Koulio/internal/errors"
	"github.com/Pelan2022/Koulio/internal/mocks"
	"github.com/Pelan2022/Koulio/pkg/constant"
)

type serviceFixture struct {
	users    *mocks.MockUserRepository
	sessions *mocks.MockSessionRepository
	hasher   *service.PasswordService
	tokens   *service.TokenService
	svc      *service.UserService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	users := mocks.NewMockUserRepository(ctrl)
	sessions := mocks.NewMockSessionRepository(ctrl)
	hasher := service.NewPasswordService(config.HashConfig{
		ArgonMemory:      1024,
		ArgonIterations:  1,
		ArgonParallelism: 1,
		BcryptCost:       bcrypt.MinCost,
	})
	tokens := service.NewTokenService("test-secret", time.Hour, 24*time.Hour)

	auditor := mocks.NewMockRecorder(ctrl)
	auditor.EXPECT().Record(gomock.Any(), gomock.Any()).AnyTimes()

	cfg := config.AuthConfig{
		JWTSecret:        "test-secret",
		AccessTokenTTL:   time.Hour,
		RefreshTokenTTL:  24 * time.Hour,
		LockoutThreshold: 5,
		LockoutDuration:  30 * time.Minute,
	}

	return &serviceFixture{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		svc:      service.NewUserService(users, sessions, hasher, tokens, auditor, cfg, zap.NewNop()),
	}
}

func (f *serviceFixture) activeUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	return &domain.User{
		ID:           "11111111-1111-1111-1111-111111111111",
		Email:        "user@example.com",
		FullName:     "Test User",
		PasswordHash: hash,
		Role:         constant.RoleUser,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func TestUserService_Register(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.users.EXPECT().GetByEmail(ctx, "new@example.com").Return(nil, nil)
	f.users.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, u *domain.User) error {
			assert.NotEmpty(t, u.ID)
			assert.Equal(t, "new@example.com", u.Email)
			assert.Equal(t, "New User", u.FullName)
			assert.Equal(t, constant.RoleUser, u.Role)
			assert.True(t, u.IsActive)
			assert.True(t, f.hasher.Verify("Abc12345!", u.PasswordHash))
			return nil
		})
	f.sessions.EXPECT().Store(ctx, gomock.Any()).Return(nil)

	out, err := f.svc.Register(ctx, dto.RegisterInput{
		Email:    "New@Example.com",
		FullName: "  New User ",
		Password: "Abc12345!",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", out.User.Email)
	assert.NotEmpty(t, out.AccessToken)
	assert.NotEmpty(t, out.RefreshToken)

	claims, err := f.tokens.VerifyAccess(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, claims.UserID)
}

func TestUserService_Register_EmailTaken(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.users.EXPECT().GetByEmail(ctx, "user@example.com").Return(f.activeUser(t, "Abc12345!"), nil)

	_, err := f.svc.Register(ctx, dto.RegisterInput{
		Email:    "user@example.com",
		FullName: "Test User",
		Password: "Abc12345!",
	})
	assert.ErrorIs(t, err, autherror.ErrEmailAlreadyInUse)
}

func TestUserService_Register_InvalidInput(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, dto.RegisterInput{Email: "not-an-email", Password: "Abc12345!"})
	assert.ErrorIs(t, err, autherror.ErrInvalidEmail)

	_, err = f.svc.Register(ctx, dto.RegisterInput{Email: "user@example.com", Password: "weak"})
	assert.ErrorIs(t, err, autherror.ErrWeakPassword)
}

func TestUserService_Login(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")

	f.users.EXPECT().GetByEmail(ctx, "user@example.com").Return(user, nil)
	f.users.EXPECT().RecordLoginSuccess(ctx, user.ID).Return(nil)
	f.sessions.EXPECT().Store(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, sess *domain.Session) error {
			assert.Equal(t, user.ID, sess.UserID)
			assert.Equal(t, "10.0.0.1", sess.IPAddress)
			return nil
		})

	out, err := f.svc.Login(ctx, dto.LoginInput{
		Email:     " User@Example.com ",
		Password:  "Abc12345!",
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, out.User.ID)
	assert.NotEmpty(t, out.AccessToken)
	assert.NotEmpty(t, out.RefreshToken)
}

func TestUserService_Login_UnknownEmail(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.users.EXPECT().GetByEmail(ctx, "nobody@example.com").Return(nil, nil)

	_, err := f.svc.Login(ctx, dto.LoginInput{Email: "nobody@example.com", Password: "Abc12345!"})
	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
}

func TestUserService_Login_InactiveAccount(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")
	user.IsActive = false

	f.users.EXPECT().GetByEmail(ctx, "user@example.com").Return(user, nil)

	// Deactivated accounts look exactly like unknown ones.
	_, err := f.svc.Login(ctx, dto.LoginInput{Email: "user@example.com", Password: "Abc12345!"})
	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
}

func TestUserService_Login_WrongPassword(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")

	f.users.EXPECT().GetByEmail(ctx, "user@example.com").Return(user, nil)
	f.users.EXPECT().RecordLoginFailure(ctx, user.ID, 5, 30*time.Minute).Return(1, nil, nil)

	_, err := f.svc.Login(ctx, dto.LoginInput{Email: "user@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
}

func TestUserService_Login_WrongPasswordTriggersLock(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")
	lockedUntil := time.Now().Add(30 * time.Minute)

	f.users.EXPECT().GetByEmail(ctx, "user@example.com").Return(user, nil)
	f.users.EXPECT().RecordLoginFailure(ctx, user.ID, 5, 30*time.Minute).Return(5, &lockedUntil, nil)

	// The attempt that trips the lock still reports invalid credentials;
	// the lock shows on the next attempt.
	_, err := f.svc.Login(ctx, dto.LoginInput{Email: "user@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
}

func TestUserService_Login_LockedAccount(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")
	lockedUntil := time.Now().Add(10 * time.Minute)
	user.LoginAttempts = 5
	user.LockedUntil = &lockedUntil

	f.users.EXPECT().GetByEmail(ctx, "user@example.com").Return(user, nil)

	// Even the correct password is rejected while the lock holds.
	_, err := f.svc.Login(ctx, dto.LoginInput{Email: "user@example.com", Password: "Abc12345!"})
	assert.ErrorIs(t, err, autherror.ErrAccountLocked)
}

func TestUserService_Login_ExpiredLock(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")
	lockedUntil := time.Now().Add(-time.Minute)
	user.LoginAttempts = 5
	user.LockedUntil = &lockedUntil

	f.users.EXPECT().GetByEmail(ctx, "user@example.com").Return(user, nil)
	f.users.EXPECT().RecordLoginSuccess(ctx, user.ID).Return(nil)
	f.sessions.EXPECT().Store(ctx, gomock.Any()).Return(nil)

	_, err := f.svc.Login(ctx, dto.LoginInput{Email: "user@example.com", Password: "Abc12345!"})
	assert.NoError(t, err)
}

func TestUserService_Refresh(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")

	refreshToken, expiresAt, err := f.tokens.IssueRefresh(user.ID, user.Email)
	require.NoError(t, err)

	f.sessions.EXPECT().FindValid(ctx, refreshToken).Return(&domain.Session{
		ID:        "session-1",
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: expiresAt,
	}, nil)
	f.users.EXPECT().GetByID(ctx, user.ID).Return(user, nil)
	f.sessions.EXPECT().Revoke(ctx, refreshToken).Return(nil)
	f.sessions.EXPECT().Store(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, sess *domain.Session) error {
			assert.Equal(t, user.ID, sess.UserID)
			assert.NotEqual(t, refreshToken, sess.Token)
			return nil
		})

	out, err := f.svc.Refresh(ctx, dto.RefreshInput{RefreshToken: refreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)
	assert.NotEqual(t, refreshToken, out.RefreshToken)
	assert.Equal(t, int64(3600), out.ExpiresIn)
}

func TestUserService_Refresh_RevokedSession(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	refreshToken, _, err := f.tokens.IssueRefresh("user-1", "user@example.com")
	require.NoError(t, err)

	f.sessions.EXPECT().FindValid(ctx, refreshToken).Return(nil, nil)

	_, err = f.svc.Refresh(ctx, dto.RefreshInput{RefreshToken: refreshToken})
	assert.ErrorIs(t, err, autherror.ErrSessionNotFound)
}

func TestUserService_Refresh_ExpiredToken(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	expired := service.NewTokenService("test-secret", -time.Minute, -time.Minute)
	refreshToken, _, err := expired.IssueRefresh("user-1", "user@example.com")
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, dto.RefreshInput{RefreshToken: refreshToken})
	assert.ErrorIs(t, err, autherror.ErrTokenExpired)
}

func TestUserService_Refresh_AccessTokenRejected(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	accessToken, _, err := f.tokens.IssueAccess("user-1", "user@example.com", constant.RoleUser)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, dto.RefreshInput{RefreshToken: accessToken})
	assert.ErrorIs(t, err, autherror.ErrTokenInvalid)
}

func TestUserService_Refresh_DeactivatedUser(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")
	user.IsActive = false

	refreshToken, expiresAt, err := f.tokens.IssueRefresh(user.ID, user.Email)
	require.NoError(t, err)

	f.sessions.EXPECT().FindValid(ctx, refreshToken).Return(&domain.Session{
		ID:        "session-1",
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: expiresAt,
	}, nil)
	f.users.EXPECT().GetByID(ctx, user.ID).Return(user, nil)

	_, err = f.svc.Refresh(ctx, dto.RefreshInput{RefreshToken: refreshToken})
	assert.ErrorIs(t, err, autherror.ErrUserInactive)
}

func TestUserService_Logout(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.sessions.EXPECT().Revoke(ctx, "some-refresh-token").Return(nil)
	err := f.svc.Logout(ctx, "user-1", dto.LogoutInput{RefreshToken: "some-refresh-token"})
	assert.NoError(t, err)

	f.sessions.EXPECT().RevokeAllForUser(ctx, "user-1").Return(nil)
	err = f.svc.Logout(ctx, "user-1", dto.LogoutInput{})
	assert.NoError(t, err)
}

func TestUserService_Profile(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")

	f.users.EXPECT().GetByID(ctx, user.ID).Return(user, nil)

	out, err := f.svc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, out.Email)
	assert.Equal(t, user.FullName, out.FullName)
}

func TestUserService_Profile_NotFound(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.users.EXPECT().GetByID(ctx, "missing").Return(nil, nil)

	_, err := f.svc.Profile(ctx, "missing")
	assert.ErrorIs(t, err, autherror.ErrUserNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")

	f.users.EXPECT().GetByID(ctx, user.ID).Return(user, nil)
	f.users.EXPECT().GetByEmail(ctx, "renamed@example.com").Return(nil, nil)
	f.users.EXPECT().UpdateProfile(ctx, user.ID, "Renamed User", "renamed@example.com").Return(nil)

	out, err := f.svc.UpdateProfile(ctx, user.ID, dto.UpdateProfileInput{
		FullName: "Renamed User",
		Email:    "Renamed@Example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed User", out.FullName)
	assert.Equal(t, "renamed@example.com", out.Email)
}

func TestUserService_UpdateProfile_EmailTaken(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")
	other := f.activeUser(t, "Abc12345!")
	other.ID = "22222222-2222-2222-2222-222222222222"
	other.Email = "taken@example.com"

	f.users.EXPECT().GetByID(ctx, user.ID).Return(user, nil)
	f.users.EXPECT().GetByEmail(ctx, "taken@example.com").Return(other, nil)

	_, err := f.svc.UpdateProfile(ctx, user.ID, dto.UpdateProfileInput{Email: "taken@example.com"})
	assert.ErrorIs(t, err, autherror.ErrEmailAlreadyInUse)
}

func TestUserService_ChangePassword(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")

	f.users.EXPECT().GetByID(ctx, user.ID).Return(user, nil)
	f.users.EXPECT().UpdatePassword(ctx, user.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, hash string) error {
			assert.True(t, f.hasher.Verify("NewPass99#", hash))
			return nil
		})
	f.sessions.EXPECT().RevokeAllForUser(ctx, user.ID).Return(nil)

	err := f.svc.ChangePassword(ctx, user.ID, dto.ChangePasswordInput{
		CurrentPassword: "Abc12345!",
		NewPassword:     "NewPass99#",
	})
	assert.NoError(t, err)
}

func TestUserService_ChangePassword_WrongCurrent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")

	f.users.EXPECT().GetByID(ctx, user.ID).Return(user, nil)

	err := f.svc.ChangePassword(ctx, user.ID, dto.ChangePasswordInput{
		CurrentPassword: "wrong",
		NewPassword:     "NewPass99#",
	})
	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
}

func TestUserService_ChangePassword_WeakNew(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")

	f.users.EXPECT().GetByID(ctx, user.ID).Return(user, nil)

	err := f.svc.ChangePassword(ctx, user.ID, dto.ChangePasswordInput{
		CurrentPassword: "Abc12345!",
		NewPassword:     "weak",
	})
	assert.ErrorIs(t, err, autherror.ErrWeakPassword)
}

func TestUserService_DeleteAccount(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")

	f.users.EXPECT().GetByID(ctx, user.ID).Return(user, nil)
	f.users.EXPECT().Delete(ctx, user.ID).Return(nil)

	err := f.svc.DeleteAccount(ctx, user.ID, dto.DeleteAccountInput{Password: "Abc12345!"})
	assert.NoError(t, err)
}

func TestUserService_DeleteAccount_WrongPassword(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")

	f.users.EXPECT().GetByID(ctx, user.ID).Return(user, nil)

	err := f.svc.DeleteAccount(ctx, user.ID, dto.DeleteAccountInput{Password: "wrong"})
	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
}

func TestUserService_ListUsers_ClampsPaging(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.users.EXPECT().List(ctx, constant.DefaultPageLimit, 0).Return([]*domain.User{}, nil)
	_, err := f.svc.ListUsers(ctx, 0, -3)
	assert.NoError(t, err)

	f.users.EXPECT().List(ctx, constant.MaxPageLimit, 10).Return([]*domain.User{}, nil)
	_, err = f.svc.ListUsers(ctx, 10_000, 10)
	assert.NoError(t, err)
}

func TestUserService_ForceLogout(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")

	f.users.EXPECT().GetByID(ctx, user.ID).Return(user, nil)
	f.sessions.EXPECT().RevokeAllForUser(ctx, user.ID).Return(nil)
	assert.NoError(t, f.svc.ForceLogout(ctx, user.ID))

	f.users.EXPECT().GetByID(ctx, "missing").Return(nil, nil)
	assert.ErrorIs(t, f.svc.ForceLogout(ctx, "missing"), autherror.ErrUserNotFound)
}

func TestUserService_AuthenticateAccess(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "Abc12345!")

	token, _, err := f.tokens.IssueAccess(user.ID, user.Email, user.Role)
	require.NoError(t, err)

	f.users.EXPECT().GetByID(ctx, user.ID).Return(user, nil)
	got, err := f.svc.AuthenticateAccess(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestUserService_AuthenticateAccess_DeactivatedOrLocked(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	inactive := f.activeUser(t, "Abc12345!")
	inactive.IsActive = false
	token, _, err := f.tokens.IssueAccess(inactive.ID, inactive.Email, inactive.Role)
	require.NoError(t, err)

	f.users.EXPECT().GetByID(ctx, inactive.ID).Return(inactive, nil)
	_, err = f.svc.AuthenticateAccess(ctx, token)
	assert.ErrorIs(t, err, autherror.ErrUserInactive)

	locked := f.activeUser(t, "Abc12345!")
	lockedUntil := time.Now().Add(10 * time.Minute)
	locked.LockedUntil = &lockedUntil
	f.users.EXPECT().GetByID(ctx, locked.ID).Return(locked, nil)
	_, err = f.svc.AuthenticateAccess(ctx, token)
	assert.ErrorIs(t, err, autherror.ErrAccountLocked)
}
