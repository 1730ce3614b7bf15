package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionJWTRoundTrip(t *testing.T) {
	secret := []byte("test-jwt-secret")
	adminID := uuid.New()

	token, exp, err := GenerateSessionJWT(adminID, secret)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Greater(t, exp, int64(0))

	got, err := DecodeSessionJWT(token, secret)
	require.NoError(t, err)
	assert.Equal(t, adminID, got)
}

func TestSessionJWTWrongSecret(t *testing.T) {
	token, _, err := GenerateSessionJWT(uuid.New(), []byte("right-secret"))
	require.NoError(t, err)

	_, err = DecodeSessionJWT(token, []byte("wrong-secret"))
	assert.Error(t, err)
}

func TestSessionJWTGarbage(t *testing.T) {
	_, err := DecodeSessionJWT("not.a.token", []byte("secret"))
	assert.Error(t, err)

	_, err = DecodeSessionJWT("", []byte("secret"))
	assert.Error(t, err)
}
