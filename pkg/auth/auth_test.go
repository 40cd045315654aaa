package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService(Config{
		Secret:     "test-secret-key-at-least-32-chars",
		Issuer:     "skillsphere-test",
		Expiration: 15 * time.Minute,
	})
}

func TestGenerateToken(t *testing.T) {
	svc := newTestService()

	token, expiresAt, err := svc.GenerateToken(42, "student")

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
}

func TestValidateToken_RoundTrip(t *testing.T) {
	svc := newTestService()

	token, _, err := svc.GenerateToken(42, "organizer")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)

	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "organizer", claims.Role)
	assert.Equal(t, "skillsphere-test", claims.Issuer)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := newTestService()
	other := NewService(Config{
		Secret:     "a-completely-different-secret-key",
		Issuer:     "skillsphere-test",
		Expiration: 15 * time.Minute,
	})

	token, _, err := svc.GenerateToken(1, "student")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewService(Config{
		Secret:     "test-secret-key-at-least-32-chars",
		Issuer:     "skillsphere-test",
		Expiration: -time.Minute,
	})

	token, _, err := svc.GenerateToken(1, "student")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestService()

	_, err := svc.ValidateToken("not.a.token")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")

	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)
	assert.True(t, CheckPassword(hash, "correct horse battery staple"))
	assert.False(t, CheckPassword(hash, "wrong password"))
}
