package password

import (
	"strings"
	"testing"

	"gymgate/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("correct horse battery staple")
	require.NoError(t, err)

	ok, err := Verify("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashFormat(t *testing.T) {
	hash, err := Hash("somepassword")
	require.NoError(t, err)

	parts := strings.Split(hash, ":")
	require.Len(t, parts, 5)
	assert.Equal(t, "10000", parts[1])
	assert.Equal(t, "64", parts[2])
	assert.Equal(t, "sha512", parts[3])
	// hex-encoded 16-byte salt and 64-byte key
	assert.Len(t, parts[0], 32)
	assert.Len(t, parts[4], 128)
}

func TestHashUniqueSalts(t *testing.T) {
	first, err := Hash("samepassword")
	require.NoError(t, err)
	second, err := Hash("samepassword")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	// Both still verify
	for _, h := range []string{first, second} {
		ok, err := Verify("samepassword", h)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	cases := []string{
		"",
		"notahash",
		"aabb:10000:64:sha512",                // missing hash field
		"zzzz:10000:64:sha512:aabb",           // bad salt hex
		"aabb:-1:64:sha512:aabb",              // bad iterations
		"aabb:10000:64:md5:aabb",              // unknown digest
		"aabb:10000:64:sha512:zz",             // bad hash hex
		"aabb:10000:64:sha512:aabb:extrapart", // too many fields
	}

	for _, stored := range cases {
		ok, err := Verify("password", stored)
		assert.False(t, ok, "stored=%q", stored)
		assert.ErrorIs(t, err, domain.ErrMalformedHash, "stored=%q", stored)
	}
}

func TestVerifyLegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := Verify("oldpassword", string(legacy))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("notit", string(legacy))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashToken(t *testing.T) {
	a := HashToken("token-a")
	b := HashToken("token-b")

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, HashToken("token-a"))
}

func TestValidatePassword(t *testing.T) {
	assert.True(t, ValidatePassword("12345678"))
	assert.False(t, ValidatePassword("1234567"))
	assert.False(t, ValidatePassword(""))
}
