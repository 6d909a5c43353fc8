package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"eventplanner/internal/cache"
	apperrors "eventplanner/internal/errors"
	"eventplanner/internal/model"
	"eventplanner/internal/repository"
)

// Users never change after signup, so cached entries need no invalidation.
const userCacheTTL = 5 * time.Minute

// UserService resolves stored users.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

// GetUser looks a user up by id, served from the cache when possible.
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	s.cache.SetJSON(ctx, s.cacheKey(id), cachedUser(user), userCacheTTL)
	return user, nil
}

// GetByUsername looks a user up by username.
func (s *userService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound.WithMessage("user %q not found", username)
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return user, nil
}

// cachedUser is the copy of u stored in the cache, without the password hash.
func cachedUser(u *model.User) model.User {
	c := *u
	c.PasswordHash = ""
	return c
}
