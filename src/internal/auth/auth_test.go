package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, CheckPassword("correct horse battery staple", hash))
	assert.ErrorIs(t, CheckPassword("wrong", hash), ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	service := NewService("test-secret", "cattle-backend", time.Hour)
	user := &models.User{
		ID:       uuid.New(),
		Role:     models.RoleFarmer,
		IsActive: true,
	}

	token, expiresAt, err := service.IssueToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := service.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleFarmer, claims.Role)
	assert.Equal(t, "cattle-backend", claims.Issuer)
}

func TestTokenRejections(t *testing.T) {
	service := NewService("test-secret", "cattle-backend", time.Hour)
	user := &models.User{ID: uuid.New(), Role: models.RoleFarmer, IsActive: true}

	t.Run("InactiveUserCannotGetToken", func(t *testing.T) {
		dormant := &models.User{ID: uuid.New(), IsActive: false}
		_, _, err := service.IssueToken(dormant)
		assert.ErrorIs(t, err, ErrUserNotActive)
	})

	t.Run("GarbageTokenRejected", func(t *testing.T) {
		_, err := service.ParseToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongKeyRejected", func(t *testing.T) {
		token, _, err := service.IssueToken(user)
		require.NoError(t, err)

		other := NewService("different-secret", "cattle-backend", time.Hour)
		_, err = other.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("ExpiredTokenRejected", func(t *testing.T) {
		shortLived := &Service{
			secretKey: []byte("test-secret"),
			issuer:    "cattle-backend",
			tokenTTL:  -time.Minute,
		}
		token, _, err := shortLived.IssueToken(user)
		require.NoError(t, err)

		_, err = service.ParseToken(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})
}
