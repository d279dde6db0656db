// AngelaMos | 2026
// security_test.go

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	valid, err := VerifyPassword("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifyPasswordTimingSafeNilHash(t *testing.T) {
	valid, rehash, err := VerifyPasswordTimingSafe("anything", nil)
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Empty(t, rehash)
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateOTP(5)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, code, 10000, "leading digit must be nonzero")
		assert.LessOrEqual(t, code, 99999)
	}
}

func TestGenerateOTPSingleDigit(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP(1)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, code, 1)
		assert.LessOrEqual(t, code, 9)
	}
}

func TestGenerateOTPInvalidDigits(t *testing.T) {
	_, err := GenerateOTP(0)
	assert.Error(t, err)
}

func TestGenerateResetToken(t *testing.T) {
	token, err := GenerateResetToken()
	require.NoError(t, err)

	// 20 random bytes, hex encoded.
	assert.Len(t, token, 40)

	other, err := GenerateResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestHashTokenRoundTrip(t *testing.T) {
	token, err := GenerateSecureToken(20)
	require.NoError(t, err)

	hash := HashToken(token)
	assert.Len(t, hash, 64)

	assert.True(t, CompareTokenHash(token, hash))
	assert.False(t, CompareTokenHash("different-token", hash))
}
