package service

import (
	"context"
	"errors"
	"time"

	"inventory-rest-api/internal/logger"
	"inventory-rest-api/internal/model"
	"inventory-rest-api/internal/repository"
	"inventory-rest-api/pkg/apierror"
	"inventory-rest-api/pkg/uid"
)

const msgInvalidCredentials = "Invalid credentials"

// SignupInput is the body of POST /api/signup.
type SignupInput struct {
	Name     string `json:"name" validate:"max=255"`
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginInput is the body of POST /api/login.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	User      model.PublicUser `json:"user"`
}

// AuthService handles signup, login and token checks.
type AuthService struct {
	users  repository.UserRepository
	hasher PasswordHasher
	tokens *TokenService

	// dummyHash is compared against when the email is unknown so that both
	// login failures take about the same time.
	dummyHash string
}

// NewAuthService creates a new auth service.
func NewAuthService(users repository.UserRepository, hasher PasswordHasher, tokens *TokenService) (*AuthService, error) {
	dummy, err := hasher.Hash(uid.New())
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		dummyHash: dummy,
	}, nil
}

// Signup creates a user. No token is issued.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*model.PublicUser, error) {
	if err := validateInput("Email and password required", in); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, upstream(ctx, "Server error", err)
	}
	if existing != nil {
		return nil, apierror.Conflict("Email already registered")
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, upstream(ctx, "Server error", err)
	}

	user := &model.User{Name: in.Name, Email: in.Email, PasswordHash: digest}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apierror.Conflict("Email already registered")
		}
		return nil, upstream(ctx, "Server error", err)
	}

	logger.FromContext(ctx).Info("user signed up", "user_id", user.ID)
	public := user.Public()
	return &public, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password produce the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validateInput("Email and password required", in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, upstream(ctx, "Server error", err)
	}
	if user == nil {
		s.hasher.Verify(in.Password, s.dummyHash)
		return nil, apierror.Unauthorized(msgInvalidCredentials)
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, apierror.Unauthorized(msgInvalidCredentials)
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, upstream(ctx, "Server error", err)
	}

	logger.FromContext(ctx).Info("user logged in", "user_id", user.ID)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user.Public()}, nil
}

// VerifyToken returns the identity a bearer token proves.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*model.Identity, error) {
	identity, err := s.tokens.Verify(ctx, token)
	if err != nil {
		return nil, apierror.Unauthorized("Invalid or expired token")
	}
	return identity, nil
}

// CanLogout reports whether tokens can be revoked.
func (s *AuthService) CanLogout() bool {
	return s.tokens.CanRevoke()
}

// Logout revokes the token behind identity.
func (s *AuthService) Logout(ctx context.Context, identity *model.Identity) error {
	err := s.tokens.Revoke(ctx, identity)
	switch {
	case err == nil:
		logger.FromContext(ctx).Info("user logged out", "user_id", identity.UserID)
		return nil
	case errors.Is(err, ErrRevocationDisabled):
		return apierror.ServiceUnavailable("Logout is not available")
	case errors.Is(err, ErrInvalidToken):
		return apierror.Unauthorized("Invalid or expired token")
	default:
		return upstream(ctx, "Logout failed", err)
	}
}
