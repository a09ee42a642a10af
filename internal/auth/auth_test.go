package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndCompareHash(t *testing.T) {
	hash, err := CreateHash("hunter2", Params)
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	match, err := ComparePasswordAndHash("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = ComparePasswordAndHash("hunter3", hash)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestHashesAreSalted(t *testing.T) {
	h1, err := CreateHash("hunter2", Params)
	require.NoError(t, err)
	h2, err := CreateHash("hunter2", Params)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestCompareMalformedHash(t *testing.T) {
	_, err := ComparePasswordAndHash("hunter2", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestGuestTokenRoundTrip(t *testing.T) {
	require.NoError(t, Init())

	tok, err := CreateGuestToken("guest-123")
	require.NoError(t, err)

	sub, err := AuthenticateGuestToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "guest-123", sub)
}

func TestGuestTokenRejectsGarbage(t *testing.T) {
	require.NoError(t, Init())

	_, err := AuthenticateGuestToken("garbage.token.value")
	assert.Error(t, err)
}
