package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivePasswordHashIsDeterministic(t *testing.T) {
	a := DerivePasswordHash("s3cret!", "00112233445566778899aabbccddeeff")
	b := DerivePasswordHash("s3cret!", "00112233445566778899aabbccddeeff")
	assert.Equal(t, a, b)
	assert.Len(t, a, PasswordKeyLength*2)

	c := DerivePasswordHash("s3cret!", "ffeeddccbbaa99887766554433221100")
	assert.NotEqual(t, a, c)
}

func TestVerifyPassword(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	require.Len(t, salt, 32)

	hash := DerivePasswordHash("mango-season", salt)

	assert.True(t, VerifyPassword("mango-season", hash, salt))
	assert.False(t, VerifyPassword("mango-seasoN", hash, salt))
	assert.False(t, VerifyPassword("mango-season ", hash, salt))
	assert.False(t, VerifyPassword("mango-season", hash[:10], salt))
	assert.False(t, VerifyPassword("mango-season", "", salt))
	assert.False(t, VerifyPassword("mango-season", hash, ""))
}

func TestGenerateToken(t *testing.T) {
	first, err := GenerateToken()
	require.NoError(t, err)
	second, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, first, 48)
	assert.NotEqual(t, first, second)
}

func TestHashToken(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual("admin", "admin"))
	assert.False(t, ConstantTimeEqual("admin", "admin2"))
	assert.False(t, ConstantTimeEqual("", "admin"))
}
