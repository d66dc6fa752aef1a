package cars

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"carjoy/internal/apperror"
	"carjoy/internal/bus"
	"carjoy/internal/models"
	"carjoy/internal/storage"
)

const (
	maxImages     = 10
	maxImageBytes = 5 << 20

	cleanupFailedTopic = "carjoy.images.cleanup_failed"
)

// Input carries the replaceable fields of a car listing. Title, description,
// and all three tag fields are required.
type Input struct {
	Title       string
	Description string
	Tags        models.CarTags
}

// Service orchestrates car CRUD with ownership checks and image-list
// reconciliation against the asset store. Cleanup failures are logged and
// published to the event bus; they never abort a user-facing operation.
type Service struct {
	repo   Repository
	store  storage.Store
	events *bus.Bus
}

func NewService(repo Repository, store storage.Store, events *bus.Bus) *Service {
	return &Service{repo: repo, store: store, events: events}
}

// Create validates all input before any file is persisted, stores the images,
// and inserts the record. A failure at any point removes the files already
// stored for this request so nothing is orphaned.
func (s *Service) Create(ctx context.Context, owner uuid.UUID, in Input, files []storage.Upload) (*models.Car, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperror.Validation("invalid car input",
			apperror.FieldError{Field: "images", Message: "at least one image is required"})
	}
	if len(files) > maxImages {
		return nil, apperror.TooManyImages(maxImages)
	}
	if err := validateFiles(files); err != nil {
		return nil, err
	}

	names, err := s.saveAll(ctx, files)
	if err != nil {
		return nil, err
	}

	car := &models.Car{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Images:      datatypes.NewJSONSlice(names),
		Tags:        datatypes.NewJSONType(in.Tags),
		OwnerID:     owner,
	}
	if err := s.repo.Create(ctx, car); err != nil {
		s.removeAll(ctx, car.ID, names)
		return nil, apperror.Storage("error saving car", err)
	}
	return car, nil
}

// List returns the caller's cars in insertion order.
func (s *Service) List(ctx context.Context, owner uuid.UUID) ([]models.Car, error) {
	cars, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, apperror.Storage("error listing cars", err)
	}
	return cars, nil
}

// Get returns the car only if it exists and belongs to owner. An absent car
// and a foreign-owned car are indistinguishable to the caller.
func (s *Service) Get(ctx context.Context, owner, id uuid.UUID) (*models.Car, error) {
	car, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NotFound("car not found")
		}
		return nil, apperror.Storage("error loading car", err)
	}
	if car.OwnerID != owner {
		return nil, apperror.NotFound("car not found")
	}
	return car, nil
}

// Update replaces title/description/tags wholesale and reconciles the image
// list: (existing - removed) + new, retained first. New files are stored only
// after validation passes; if the record save fails they are removed again.
// Files the caller removed are deleted from the store only once the record is
// safely saved.
func (s *Service) Update(ctx context.Context, owner, id uuid.UUID, in Input, removed []string, files []storage.Upload) (*models.Car, error) {
	car, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := validateFiles(files); err != nil {
		return nil, err
	}

	removedSet := make(map[string]struct{}, len(removed))
	for _, name := range removed {
		removedSet[name] = struct{}{}
	}

	// only filenames actually referenced by this car may be deleted
	retained := make([]string, 0, len(car.Images))
	var dropped []string
	for _, name := range car.Images {
		if _, ok := removedSet[name]; ok {
			dropped = append(dropped, name)
		} else {
			retained = append(retained, name)
		}
	}

	total := len(retained) + len(files)
	if total > maxImages {
		return nil, apperror.TooManyImages(maxImages)
	}
	if total == 0 {
		return nil, apperror.Validation("invalid car input",
			apperror.FieldError{Field: "images", Message: "at least one image is required"})
	}

	newNames, err := s.saveAll(ctx, files)
	if err != nil {
		return nil, err
	}

	car.Title = strings.TrimSpace(in.Title)
	car.Description = strings.TrimSpace(in.Description)
	car.Tags = datatypes.NewJSONType(in.Tags)
	car.Images = datatypes.NewJSONSlice(append(retained, newNames...))

	if err := s.repo.Save(ctx, car); err != nil {
		s.removeAll(ctx, car.ID, newNames)
		return nil, apperror.Storage("error saving car", err)
	}

	s.removeAll(ctx, car.ID, dropped)
	return car, nil
}

// Delete removes the car's image files best-effort, then the record. A
// foreign-owned car yields Forbidden; only the record deletion can fail the
// operation.
func (s *Service) Delete(ctx context.Context, owner, id uuid.UUID) error {
	car, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperror.NotFound("car not found")
		}
		return apperror.Storage("error loading car", err)
	}
	if car.OwnerID != owner {
		return apperror.Forbidden("not allowed to delete this car")
	}

	s.removeAll(ctx, car.ID, car.Images)

	if err := s.repo.Delete(ctx, car.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperror.NotFound("car not found")
		}
		return apperror.Storage("error deleting car", err)
	}
	return nil
}

func validateInput(in Input) error {
	var fields []apperror.FieldError
	if strings.TrimSpace(in.Title) == "" {
		fields = append(fields, apperror.FieldError{Field: "title", Message: "is required"})
	}
	if strings.TrimSpace(in.Description) == "" {
		fields = append(fields, apperror.FieldError{Field: "description", Message: "is required"})
	}
	if strings.TrimSpace(in.Tags.CarType) == "" {
		fields = append(fields, apperror.FieldError{Field: "tags.car_type", Message: "is required"})
	}
	if strings.TrimSpace(in.Tags.Company) == "" {
		fields = append(fields, apperror.FieldError{Field: "tags.company", Message: "is required"})
	}
	if strings.TrimSpace(in.Tags.Dealer) == "" {
		fields = append(fields, apperror.FieldError{Field: "tags.dealer", Message: "is required"})
	}
	if len(fields) > 0 {
		return apperror.Validation("invalid car input", fields...)
	}
	return nil
}

func validateFiles(files []storage.Upload) error {
	var fields []apperror.FieldError
	for _, f := range files {
		if !strings.HasPrefix(f.ContentType, "image/") {
			fields = append(fields, apperror.FieldError{
				Field:   "images",
				Message: fmt.Sprintf("%s: only image uploads are accepted", f.Filename),
			})
		}
		if f.Size > maxImageBytes {
			fields = append(fields, apperror.FieldError{
				Field:   "images",
				Message: fmt.Sprintf("%s: exceeds the %d MiB per-file limit", f.Filename, maxImageBytes>>20),
			})
		}
	}
	if len(fields) > 0 {
		return apperror.Validation("invalid image upload", fields...)
	}
	return nil
}

// saveAll stores every upload, rolling back the ones already written when a
// later one fails.
func (s *Service) saveAll(ctx context.Context, files []storage.Upload) ([]string, error) {
	names := make([]string, 0, len(files))
	for _, f := range files {
		name, err := s.store.Save(ctx, f)
		if err != nil {
			s.removeAll(ctx, uuid.Nil, names)
			return nil, apperror.Storage("error storing uploaded image", err)
		}
		names = append(names, name)
	}
	return names, nil
}

// removeAll deletes files best-effort. Failures are logged and published for
// out-of-band retry; asset leakage is accepted over blocking the caller.
func (s *Service) removeAll(ctx context.Context, carID uuid.UUID, names []string) {
	for _, name := range names {
		if err := s.store.Delete(ctx, name); err != nil {
			log.Warn().Err(err).Str("image", name).Msg("image cleanup failed")
			s.publishCleanupFailure(ctx, carID, name, err)
		}
	}
}

func (s *Service) publishCleanupFailure(ctx context.Context, carID uuid.UUID, name string, cause error) {
	payload := map[string]any{"image": name, "error": cause.Error()}
	if carID != uuid.Nil {
		payload["car_id"] = carID
	}
	if err := s.events.Publish(ctx, cleanupFailedTopic, payload); err != nil {
		log.Warn().Err(err).Str("image", name).Msg("publish cleanup event")
	}
}
