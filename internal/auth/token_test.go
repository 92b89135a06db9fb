package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/foodie-be/internal/models"
)

func TestTokenSubject(t *testing.T) {
	tokens := NewTokenManager("secret", "foodie-test", time.Hour)
	token, err := tokens.Generate(models.Identity{ID: "uid-1", Email: "a@example.com"})
	require.NoError(t, err)

	sub, err := tokens.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", sub)
}

func TestTokenRejected(t *testing.T) {
	tokens := NewTokenManager("secret", "foodie-test", time.Hour)
	token, err := tokens.Generate(models.Identity{ID: "uid-1"})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other", "foodie-test", time.Hour)
		_, err := other.Subject(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenManager("secret", "someone-else", time.Hour)
		_, err := other.Subject(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("expired", func(t *testing.T) {
		later := NewTokenManager("secret", "foodie-test", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Subject(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Subject("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}
