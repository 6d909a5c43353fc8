package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"eventplanner/internal/auth"
	apperrors "eventplanner/internal/errors"
	"eventplanner/internal/metrics"
	"eventplanner/internal/model"
	"eventplanner/internal/repository"
)

// TokenTypeBearer is the token_type reported with issued tokens.
const TokenTypeBearer = "bearer"

// SignupInput carries a new account's credentials.
type SignupInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// LoginResult is an issued access token.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        *model.User
}

// AuthService handles authentication operations.
type AuthService interface {
	Signup(ctx context.Context, input SignupInput) (*model.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, identity auth.Identity) error
}

type authService struct {
	userRepo   repository.UserRepository
	tokens     *auth.TokenService
	tokenStore auth.TokenStoreInterface
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenService, tokenStore auth.TokenStoreInterface) AuthService {
	return &authService{
		userRepo:   userRepo,
		tokens:     tokens,
		tokenStore: tokenStore,
	}
}

// Signup creates a user with a hashed password. Username and email must both be unused.
func (s *authService) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	role, ok := model.ParseRole(input.Role)
	if !ok {
		return nil, apperrors.ErrValidation.WithMessage("role must be one of user, organizer")
	}
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if err := s.ensureUnused(ctx, s.userRepo.FindByUsername, username); err != nil {
		return nil, err
	}
	if err := s.ensureUnused(ctx, s.userRepo.FindByEmail, email); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same name.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.SignupsTotal.WithLabelValues(string(role)).Inc()
	zerolog.Ctx(ctx).Info().
		Str("user_id", user.ID.String()).
		Str("role", string(role)).
		Msg("user signed up")
	return user, nil
}

func (s *authService) ensureUnused(ctx context.Context, find func(context.Context, string) (*model.User, error), value string) error {
	existing, err := find(ctx, value)
	if err == nil && existing != nil {
		return apperrors.ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check user existence: %w", err)
	}
	return nil
}

// Login verifies credentials and issues an access token.
func (s *authService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	token, claims, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return &LoginResult{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        user,
	}, nil
}

// Logout revokes the caller's token until it would have expired.
func (s *authService) Logout(ctx context.Context, identity auth.Identity) error {
	if identity.TokenID == "" {
		return apperrors.ErrUnauthorized
	}
	ttl := time.Until(time.Unix(identity.ExpiresAt, 0))
	if err := s.tokenStore.Revoke(ctx, identity.TokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
