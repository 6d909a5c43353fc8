package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"eventplanner/internal/model"
)

// UserRepository defines credential persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsernames(ctx context.Context, usernames []string) ([]model.User, error)
}

type userRepository struct {
	conn
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB, timeout time.Duration) UserRepository {
	return &userRepository{conn: newConn(db, timeout)}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	db, cancel := r.with(ctx)
	defer cancel()
	return db.Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	db, cancel := r.with(ctx)
	defer cancel()

	var user model.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	db, cancel := r.with(ctx)
	defer cancel()

	var user model.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	db, cancel := r.with(ctx)
	defer cancel()

	var user model.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsernames returns the users that exist among usernames, in no particular order.
func (r *userRepository) FindByUsernames(ctx context.Context, usernames []string) ([]model.User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	db, cancel := r.with(ctx)
	defer cancel()

	var users []model.User
	if err := db.Where("username IN ?", usernames).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
