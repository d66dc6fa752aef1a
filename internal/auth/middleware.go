package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"carjoy/internal/apperror"
	"carjoy/internal/httpx"
	"carjoy/internal/users"
)

// TokenCookie is the cookie that carries the session token.
const TokenCookie = "token"

// Middleware authenticates requests from the session cookie or an
// Authorization bearer header, resolves the claims to a live user record, and
// attaches it to the request context. It must wrap every resource route.
func Middleware(issuer *TokenIssuer, repo users.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if c, err := r.Cookie(TokenCookie); err == nil {
				token = c.Value
			}
			if token == "" {
				if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
					token = strings.TrimPrefix(h, "Bearer ")
				}
			}
			if token == "" {
				httpx.RespondError(w, apperror.Unauthenticated("access denied: no token provided"))
				return
			}

			claims, err := issuer.Verify(token)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}

			id, err := uuid.Parse(claims.UserID)
			if err != nil {
				httpx.RespondError(w, apperror.Unauthenticated("invalid or expired token"))
				return
			}

			user, err := repo.FindByID(r.Context(), id)
			if err != nil {
				httpx.RespondError(w, apperror.Unauthenticated("user not found or deactivated"))
				return
			}
			user.PasswordHash = ""

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
