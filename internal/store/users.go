package store

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/taskpilot/taskpilot/pkg/models"
	"gorm.io/gorm"
)

// ErrInvalidEmail is returned when a registration email is malformed.
var ErrInvalidEmail = errors.New("invalid email address")

// UserStore persists user accounts and resolves API keys to identities.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a user store backed by the given database.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Register creates an account for the email and issues its API key.
func (s *UserStore) Register(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	user := models.User{
		Email:    email,
		APIKey:   uuid.NewString(),
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}

// GetByAPIKey resolves an API key to its active user.
func (s *UserStore) GetByAPIKey(ctx context.Context, key string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("api_key = ? AND is_active = ?", key, true).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID returns the user with the given id.
func (s *UserStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
