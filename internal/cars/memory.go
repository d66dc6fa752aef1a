package cars

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"carjoy/internal/models"
)

// MemoryRepository is a slice-backed Repository preserving insertion order,
// used in tests and when the service runs without a database DSN.
type MemoryRepository struct {
	mu   sync.RWMutex
	cars []models.Car
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(_ context.Context, car *models.Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if car.ID == uuid.Nil {
		car.ID = uuid.New()
	}
	now := time.Now().UTC()
	car.CreatedAt = now
	car.UpdatedAt = now

	r.cars = append(r.cars, *car)
	return nil
}

func (r *MemoryRepository) ListByOwner(_ context.Context, owner uuid.UUID) ([]models.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Car
	for _, car := range r.cars {
		if car.OwnerID == owner {
			out = append(out, car)
		}
	}
	return out, nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, car := range r.cars {
		if car.ID == id {
			c := car
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) Save(_ context.Context, car *models.Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.cars {
		if r.cars[i].ID == car.ID {
			car.UpdatedAt = time.Now().UTC()
			r.cars[i] = *car
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.cars {
		if r.cars[i].ID == id {
			r.cars = append(r.cars[:i], r.cars[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
