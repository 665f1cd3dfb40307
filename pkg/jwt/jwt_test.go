package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	token, err := Generate("s3cr3t", "u-1", "manager", "khoaugment-pos", 5)
	require.NoError(t, err)

	userID, role, err := Parse("s3cr3t", token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
	assert.Equal(t, "manager", role)

	_, _, err = Parse("otro", token)
	assert.Error(t, err, "firma incorrecta")
}

func TestExpiredToken(t *testing.T) {
	token, err := Generate("s3cr3t", "u-1", "admin", "khoaugment-pos", -1)
	require.NoError(t, err)
	_, _, err = Parse("s3cr3t", token)
	assert.Error(t, err, "token expirado")
}

func TestEmptySecret(t *testing.T) {
	_, err := Generate("", "u-1", "admin", "", 5)
	assert.ErrorIs(t, err, ErrEmptySecret)
	_, _, err = Parse("", "x")
	assert.ErrorIs(t, err, ErrEmptySecret)
}
