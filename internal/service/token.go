package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"inventory-rest-api/internal/cache"
	"inventory-rest-api/internal/model"
	"inventory-rest-api/pkg/uid"
)

const (
	// DefaultTokenTTL is the validity window of issued tokens.
	DefaultTokenTTL = 7 * 24 * time.Hour

	revokedKeyPrefix = "revoked:"
)

var (
	// ErrInvalidToken covers every reason a token is rejected.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrRevocationDisabled is returned by Revoke when no cache is configured.
	ErrRevocationDisabled = errors.New("token revocation is not configured")
)

// Claims is the signed token payload. "id" and "email" match the tokens
// issued by earlier versions of the API.
type Claims struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 bearer tokens. Verification needs
// no server state; the optional cache only holds revoked token ids.
type TokenService struct {
	secret  []byte
	ttl     time.Duration
	revoked cache.Cache
	now     func() time.Time
}

// NewTokenService creates a token service. revoked may be nil.
func NewTokenService(secret string, ttl time.Duration, revoked cache.Cache) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: revoked,
		now:     time.Now,
	}
}

// CanRevoke reports whether Revoke is available.
func (s *TokenService) CanRevoke() bool {
	return s.revoked != nil
}

// Issue signs a token for the user.
func (s *TokenService) Issue(user *model.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uid.New(),
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm, expiry and revocation. Every
// rejection is reported as ErrInvalidToken.
func (s *TokenService) Verify(ctx context.Context, token string) (*model.Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.UserID <= 0 || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	identity := &model.Identity{
		UserID:    claims.UserID,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}

	if s.revoked != nil && claims.ID != "" {
		revoked, err := s.revoked.Exists(ctx, revokedKeyPrefix+claims.ID)
		if err != nil {
			// Fail closed: a token that may have been revoked is not accepted.
			slog.Error("revocation lookup failed", "component", "TokenService", "error", err)
			return nil, ErrInvalidToken
		}
		if revoked {
			return nil, ErrInvalidToken
		}
	}

	return identity, nil
}

// Revoke denies the token id until the token would have expired anyway.
func (s *TokenService) Revoke(ctx context.Context, identity *model.Identity) error {
	if s.revoked == nil {
		return ErrRevocationDisabled
	}
	if identity == nil || identity.TokenID == "" {
		return ErrInvalidToken
	}

	ttl := identity.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.revoked.Set(ctx, revokedKeyPrefix+identity.TokenID, []byte("1"), ttl)
}
