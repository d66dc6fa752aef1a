// Package auth implements the credential store, session token issuing, and
// the request authorization guard.
package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"carjoy/internal/apperror"
	"carjoy/internal/models"
	"carjoy/internal/users"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

const minPasswordLength = 8

// Service implements registration and credential verification on top of the
// user repository.
type Service struct {
	repo   users.Repository
	issuer *TokenIssuer
}

func NewService(repo users.Repository, issuer *TokenIssuer) *Service {
	return &Service{repo: repo, issuer: issuer}
}

// Register validates the credentials, hashes the password, and persists the
// account. Emails are stored lowercased so uniqueness is case-insensitive.
func (s *Service) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var fields []apperror.FieldError
	if !emailPattern.MatchString(email) {
		fields = append(fields, apperror.FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if len(password) < minPasswordLength {
		fields = append(fields, apperror.FieldError{Field: "password", Message: "must be at least 8 characters long"})
	}
	if len(fields) > 0 {
		return nil, apperror.Validation("invalid registration input", fields...)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, apperror.DuplicateEmail()
	} else if !errors.Is(err, users.ErrNotFound) {
		return nil, apperror.Storage("error checking existing user", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, apperror.Internal("error hashing password", err)
	}

	user := &models.User{ID: uuid.New(), Email: email, PasswordHash: hash}
	if err := s.repo.Create(ctx, user); err != nil {
		// the unique index backstops the lookup above under concurrent registration
		if errors.Is(err, users.ErrDuplicateEmail) {
			return nil, apperror.DuplicateEmail()
		}
		return nil, apperror.Storage("error creating user", err)
	}
	return user, nil
}

// Authenticate verifies the email/password pair. Unknown email and wrong
// password yield the identical error so accounts cannot be enumerated.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, apperror.Storage("error looking up user", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, apperror.InvalidCredentials()
	}

	now := time.Now().UTC()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		log.Warn().Err(err).Str("user", user.ID.String()).Msg("record last login")
	} else {
		user.LastLogin = &now
	}
	return user, nil
}

// IssueToken mints a session token for the user.
func (s *Service) IssueToken(user *models.User) (string, error) {
	return s.issuer.Issue(user)
}
