package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"carjoy/internal/apperror"
	"carjoy/internal/models"
)

// Claims are the statements embedded in every session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// TokenIssuer mints and verifies signed session tokens. Tokens are stateless:
// validity is a function of signature and expiry alone, so logout cannot
// revoke a token that is already issued.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl}
}

// Issue produces an HS256 token binding the user's id and email.
func (t *TokenIssuer) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		UserID: user.ID.String(),
		Email:  user.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses the token and returns its claims, rejecting bad signatures,
// unexpected signing methods, and expired tokens.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthenticated, "invalid or expired token", err)
	}
	if !parsed.Valid {
		return nil, apperror.Unauthenticated("invalid or expired token")
	}
	return claims, nil
}
