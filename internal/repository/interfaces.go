package repository

import (
	"context"
	"time"

	"github.com/jphacks/tk-b-2510/internal/models"
)

// PhotoRepo abstracts photo persistence
type PhotoRepo interface {
	Add(ctx context.Context, photo *models.Photo) error
	GetByID(ctx context.Context, id string) (*models.Photo, error)
	GetByHash(ctx context.Context, userID, hash string) (*models.Photo, error)
	GetAllForUser(ctx context.Context, userID string) ([]*models.Photo, error)
	GetForUserBetween(ctx context.Context, userID string, from, to time.Time) ([]*models.Photo, error)
	GetTimestampsForUser(ctx context.Context, userID string) ([]time.Time, error)
	CountForUser(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// UserRepo abstracts user persistence
type UserRepo interface {
	Add(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionRepo abstracts session persistence
type SessionRepo interface {
	Add(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Touch(ctx context.Context, id string) error
	Invalidate(ctx context.Context, id string) error
	InvalidateAllForUser(ctx context.Context, userID string) error
}
