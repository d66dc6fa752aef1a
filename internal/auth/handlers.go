package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"carjoy/internal/apperror"
	"carjoy/internal/httpx"
	"carjoy/internal/models"
)

// Handlers exposes the authentication HTTP endpoints.
type Handlers struct {
	service      *Service
	cookieDomain string
	cookieSecure bool
	ttl          time.Duration
}

func NewHandlers(service *Service, cookieDomain string, cookieSecure bool, ttl time.Duration) *Handlers {
	return &Handlers{
		service:      service,
		cookieDomain: cookieDomain,
		cookieSecure: cookieSecure,
		ttl:          ttl,
	}
}

// Routes registers the auth endpoints. guard protects /me; the other routes
// are reachable without a session.
func (h *Handlers) Routes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.With(guard).Get("/me", h.handleMe)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, apperror.Validation("invalid request body"))
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	token, err := h.service.IssueToken(user)
	if err != nil {
		httpx.RespondError(w, apperror.Internal("error issuing token", err))
		return
	}
	h.setTokenCookie(w, token)

	httpx.RespondJSON(w, http.StatusCreated, map[string]any{"user": toUserResponse(user)})
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, apperror.Validation("invalid request body"))
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	token, err := h.service.IssueToken(user)
	if err != nil {
		httpx.RespondError(w, apperror.Internal("error issuing token", err))
		return
	}
	h.setTokenCookie(w, token)

	httpx.RespondJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}

func (h *Handlers) handleLogout(w http.ResponseWriter, _ *http.Request) {
	// clearing the cookie is all logout can do: tokens are stateless and
	// remain valid until expiry
	h.clearTokenCookie(w)
	httpx.RespondJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

func (h *Handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, apperror.Unauthenticated("not authenticated"))
		return
	}
	httpx.RespondJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handlers) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Domain:   h.cookieDomain,
		MaxAge:   int(h.ttl.Seconds()),
		Secure:   h.cookieSecure,
		HttpOnly: false, // the browser client reads this cookie directly
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		Domain:   h.cookieDomain,
		MaxAge:   -1,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
