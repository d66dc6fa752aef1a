package cars

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"carjoy/internal/apperror"
	"carjoy/internal/auth"
	"carjoy/internal/httpx"
	"carjoy/internal/models"
	"carjoy/internal/storage"
)

const maxMultipartMemory = 32 << 20

// Handlers exposes the car CRUD endpoints. Every route assumes the auth
// middleware has already attached a user to the request context.
type Handlers struct {
	service *Service
	store   storage.Store
}

func NewHandlers(service *Service, store storage.Store) *Handlers {
	return &Handlers{service: service, store: store}
}

// Routes registers the car endpoints on the given (guarded) router.
func (h *Handlers) Routes(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

type imageRef struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type carResponse struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Tags        models.CarTags `json:"tags"`
	Images      []imageRef     `json:"images"`
	OwnerID     uuid.UUID      `json:"owner"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (h *Handlers) toResponse(car *models.Car) carResponse {
	images := make([]imageRef, 0, len(car.Images))
	for _, name := range car.Images {
		images = append(images, imageRef{Filename: name, URL: h.store.Resolve(name)})
	}
	return carResponse{
		ID:          car.ID,
		Title:       car.Title,
		Description: car.Description,
		Tags:        car.Tags.Data(),
		Images:      images,
		OwnerID:     car.OwnerID,
		CreatedAt:   car.CreatedAt,
		UpdatedAt:   car.UpdatedAt,
	}
}

// carForm is the decoded multipart payload shared by create and update.
type carForm struct {
	input   Input
	removed []string
	uploads []storage.Upload
	close   func()
}

func parseCarForm(r *http.Request) (*carForm, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, apperror.Validation("request must be a multipart form")
	}

	form := &carForm{
		input: Input{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
		},
		close: func() {},
	}

	if raw := r.FormValue("tags"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &form.input.Tags); err != nil {
			return nil, apperror.Validation("invalid car input",
				apperror.FieldError{Field: "tags", Message: "must be a JSON object"})
		}
	}
	if raw := r.FormValue("removedImages"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &form.removed); err != nil {
			return nil, apperror.Validation("invalid car input",
				apperror.FieldError{Field: "removedImages", Message: "must be a JSON array of filenames"})
		}
	}

	var closers []io.Closer
	form.close = func() {
		for _, c := range closers {
			c.Close()
		}
	}
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			f, err := fh.Open()
			if err != nil {
				form.close()
				return nil, apperror.Internal("error reading uploaded file", err)
			}
			closers = append(closers, f)
			form.uploads = append(form.uploads, storage.Upload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Reader:      f,
			})
		}
	}
	return form, nil
}

func (h *Handlers) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, apperror.Unauthenticated("not authenticated"))
		return
	}

	form, err := parseCarForm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	defer form.close()

	car, err := h.service.Create(r.Context(), user.ID, form.input, form.uploads)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, h.toResponse(car))
}

func (h *Handlers) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, apperror.Unauthenticated("not authenticated"))
		return
	}

	cars, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	out := make([]carResponse, 0, len(cars))
	for i := range cars {
		out = append(out, h.toResponse(&cars[i]))
	}
	httpx.RespondJSON(w, http.StatusOK, out)
}

func (h *Handlers) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, apperror.Unauthenticated("not authenticated"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, apperror.NotFound("car not found"))
		return
	}

	car, err := h.service.Get(r.Context(), user.ID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, h.toResponse(car))
}

func (h *Handlers) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, apperror.Unauthenticated("not authenticated"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, apperror.NotFound("car not found"))
		return
	}

	form, err := parseCarForm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	defer form.close()

	car, err := h.service.Update(r.Context(), user.ID, id, form.input, form.removed, form.uploads)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, h.toResponse(car))
}

func (h *Handlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, apperror.Unauthenticated("not authenticated"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, apperror.NotFound("car not found"))
		return
	}

	if err := h.service.Delete(r.Context(), user.ID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]any{"message": "car deleted"})
}
