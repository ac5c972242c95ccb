package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/Pelan2022/Koulio/internal/auth/service TokenGenerator

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	autherror "github.com/Pelan2022/Koulio/internal/errors"
	"github.com/Pelan2022/Koulio/pkg/constant"
)

type TokenGenerator interface {
	IssueAccess(userID, email, role string) (string, time.Time, error)
	IssueRefresh(userID, email string) (string, time.Time, error)
	VerifyAccess(token string) (*JWTCustomClaims, error)
	VerifyRefresh(token string) (*JWTCustomClaims, error)
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"type"`
}

// TokenService signs and validates HS256 tokens with a single process-wide
// secret. A `type` claim separates access from refresh tokens so one can
// never be presented in place of the other.
type TokenService struct {
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:          []byte(secret),
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
	}
}

func (ts *TokenService) IssueAccess(userID, email, role string) (string, time.Time, error) {
	return ts.issue(userID, email, role, constant.TokenTypeAccess, ts.accessTokenTTL)
}

func (ts *TokenService) IssueRefresh(userID, email string) (string, time.Time, error) {
	return ts.issue(userID, email, "", constant.TokenTypeRefresh, ts.refreshTokenTTL)
}

func (ts *TokenService) issue(userID, email, role, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := JWTCustomClaims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    constant.TokenIssuer,
			Audience:  jwt.ClaimStrings{constant.TokenAudience},
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, expiresAt, nil
}

func (ts *TokenService) VerifyAccess(token string) (*JWTCustomClaims, error) {
	return ts.verify(token, constant.TokenTypeAccess)
}

func (ts *TokenService) VerifyRefresh(token string) (*JWTCustomClaims, error) {
	return ts.verify(token, constant.TokenTypeRefresh)
}

// verify validates signature, expiry, issuer and audience. Expired tokens
// surface as ErrTokenExpired so callers can prompt a silent refresh; every
// other failure is ErrTokenInvalid.
func (ts *TokenService) verify(tokenString, wantType string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.secret, nil
	},
		jwt.WithIssuer(constant.TokenIssuer),
		jwt.WithAudience(constant.TokenAudience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, autherror.ErrTokenExpired
		}
		return nil, autherror.ErrTokenInvalid
	}
	if !token.Valid || claims.TokenType != wantType {
		return nil, autherror.ErrTokenInvalid
	}
	return claims, nil
}

func (ts *TokenService) AccessTokenTTL() time.Duration {
	return ts.accessTokenTTL
}

func (ts *TokenService) RefreshTokenTTL() time.Duration {
	return ts.refreshTokenTTL
}

var _ TokenGenerator = (*TokenService)(nil)
