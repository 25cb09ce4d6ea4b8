package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/purrpal/purrpal/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error

	ListStories(ctx context.Context) ([]*models.Story, error)
	CreateStory(ctx context.Context, story *models.Story) error

	ListModules(ctx context.Context) ([]*models.Module, error)
	GetModule(ctx context.Context, id string) (*models.Module, error)

	ListVeterinaryServices(ctx context.Context, filter VeterinaryFilter) ([]*models.VeterinaryService, error)
}

// VeterinaryFilter narrows ListVeterinaryServices. An empty City matches all.
type VeterinaryFilter struct {
	City string
}
