// Package cars implements the owner-scoped car listing service: CRUD,
// ownership checks, and image-list reconciliation.
package cars

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"carjoy/internal/models"
)

// ErrNotFound is returned when no car matches the lookup.
var ErrNotFound = errors.New("car not found")

// Repository stores and retrieves car records. Ownership is not checked here;
// the service compares OwnerID on every read and write.
type Repository interface {
	Create(ctx context.Context, car *models.Car) error
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Car, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Car, error)
	Save(ctx context.Context, car *models.Car) error
	Delete(ctx context.Context, id uuid.UUID) error
}
