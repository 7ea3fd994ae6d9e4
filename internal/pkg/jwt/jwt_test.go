package jwt

import (
	"testing"

	"gymgate/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	permissions := []string{"classes:write", "members:read"}
	token, err := GenerateAccessToken("user-1", "trainer@gym.fit", "trainer", "branch-7", permissions, testSecret, 15)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "trainer@gym.fit", claims.Email)
	assert.Equal(t, "trainer", claims.Role)
	assert.Equal(t, "branch-7", claims.BranchID)
	assert.Equal(t, permissions, claims.Permissions)
}

func TestAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken("user-1", "a@b.c", "member", "", nil, testSecret, -1)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, testSecret)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken("user-1", "a@b.c", "member", "", nil, testSecret, 15)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "other-secret")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestAccessTokenTampered(t *testing.T) {
	token, err := GenerateAccessToken("user-1", "a@b.c", "member", "", nil, testSecret, 15)
	require.NoError(t, err)

	// Flip a character in the payload segment
	tampered := []byte(token)
	mid := len(tampered) / 2
	if tampered[mid] == 'a' {
		tampered[mid] = 'b'
	} else {
		tampered[mid] = 'a'
	}

	_, err = ValidateAccessToken(string(tampered), testSecret)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrTokenExpired)
}

func TestAccessTokenMalformed(t *testing.T) {
	_, err := ValidateAccessToken("not.a.jwt", testSecret)
	assert.ErrorIs(t, err, domain.ErrMalformedToken)

	_, err = ValidateAccessToken("", testSecret)
	assert.ErrorIs(t, err, domain.ErrMalformedToken)
}

func TestAccessTokenUnknownRole(t *testing.T) {
	token, err := GenerateAccessToken("user-1", "a@b.c", "janitor", "", nil, testSecret, 15)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, testSecret)
	assert.ErrorIs(t, err, domain.ErrMalformedToken)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken("user-9", "token-id-1", testSecret, 7)
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, "user-9", claims.UserID)
	assert.Equal(t, "token-id-1", claims.TokenID)
}

func TestRefreshTokenNotValidAsAccessToken(t *testing.T) {
	// A refresh token carries no role, so the access validator rejects it
	token, err := GenerateRefreshToken("user-9", "token-id-1", testSecret, 7)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, testSecret)
	assert.Error(t, err)
}

func TestPendingMFATokenRoundTrip(t *testing.T) {
	token, err := GeneratePendingMFAToken("user-3", testSecret, 5)
	require.NoError(t, err)

	claims, err := ValidatePendingMFAToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, "user-3", claims.UserID)
	assert.Equal(t, "mfa", claims.Stage)
}

func TestPendingMFATokenExpired(t *testing.T) {
	token, err := GeneratePendingMFAToken("user-3", testSecret, -1)
	require.NoError(t, err)

	_, err = ValidatePendingMFAToken(token, testSecret)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}
