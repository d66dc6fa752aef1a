package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carjoy/internal/apperror"
	"carjoy/internal/models"
)

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("super-secret"), time.Hour)
	user := &models.User{ID: uuid.New(), Email: "u1@x.com"}

	token, err := issuer.Issue(user)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("secret"), -time.Second)
	token, err := issuer.Issue(&models.User{ID: uuid.New(), Email: "u1@x.com"})
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.Unauthenticated(""))
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := NewTokenIssuer([]byte("right-secret"), time.Hour).
		Issue(&models.User{ID: uuid.New(), Email: "u1@x.com"})
	require.NoError(t, err)

	_, err = NewTokenIssuer([]byte("wrong-secret"), time.Hour).Verify(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.Unauthenticated(""))
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	_, err := NewTokenIssuer([]byte("k"), time.Hour).Verify("not.a.jwt")
	require.Error(t, err)
}
