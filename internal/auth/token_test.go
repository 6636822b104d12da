package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedTestToken(t *testing.T, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestExtractIdentityFromJWT(t *testing.T) {
	raw := signedTestToken(t, jwt.MapClaims{"sub": "user-1", "role": "outlet_owner"})

	userID, role, err := ExtractIdentityFromJWT(raw)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "outlet_owner", role)
}

func TestExtractIdentityDefaultsRoleToStudent(t *testing.T) {
	raw := signedTestToken(t, jwt.MapClaims{"sub": "user-2"})

	_, role, err := ExtractIdentityFromJWT(raw)
	assert.NoError(t, err)
	assert.Equal(t, "student", role)
}

func TestExtractIdentityRejectsBadTokens(t *testing.T) {
	_, _, err := ExtractIdentityFromJWT("")
	assert.Error(t, err)

	_, _, err = ExtractIdentityFromJWT("not-a-jwt")
	assert.Error(t, err)

	raw := signedTestToken(t, jwt.MapClaims{"role": "student"})
	_, _, err = ExtractIdentityFromJWT(raw)
	assert.Error(t, err, "token without sub claim must be rejected")
}
