package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"gymgate/internal/core/domain"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// Default PBKDF2 parameters. The stored format is self-contained, so these
// only affect newly hashed passwords.
const (
	DefaultIterations = 10000
	DefaultKeyLength  = 64
	DefaultDigest     = "sha512"
	saltLength        = 16
)

// Hash derives a salted PBKDF2 hash and encodes it as
// "<salt>:<iterations>:<keyLength>:<digest>:<hash>" with hex salt/hash.
func Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := pbkdf2.Key([]byte(password), salt, DefaultIterations, DefaultKeyLength, sha512.New)

	return fmt.Sprintf("%s:%d:%d:%s:%s",
		hex.EncodeToString(salt),
		DefaultIterations,
		DefaultKeyLength,
		DefaultDigest,
		hex.EncodeToString(key),
	), nil
}

// Verify checks a password against a stored hash. Both the colon-delimited
// PBKDF2 format and legacy bcrypt blobs ("$2a$...") are accepted. The PBKDF2
// comparison covers the full derived key in constant time.
func Verify(password, stored string) (bool, error) {
	if strings.HasPrefix(stored, "$2") {
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password))
		return err == nil, nil
	}

	salt, iterations, keyLength, digest, want, err := decode(stored)
	if err != nil {
		return false, err
	}

	got := pbkdf2.Key([]byte(password), salt, iterations, keyLength, digest)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// HashToken hashes a token using SHA256 (for refresh token storage)
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidatePassword checks if password meets requirements
func ValidatePassword(password string) bool {
	return len(password) >= 8
}

// decode splits a stored hash into its component fields
func decode(stored string) ([]byte, int, int, func() hash.Hash, []byte, error) {
	parts := strings.Split(stored, ":")
	if len(parts) != 5 {
		return nil, 0, 0, nil, nil, domain.ErrMalformedHash
	}

	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return nil, 0, 0, nil, nil, domain.ErrMalformedHash
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return nil, 0, 0, nil, nil, domain.ErrMalformedHash
	}

	keyLength, err := strconv.Atoi(parts[2])
	if err != nil || keyLength <= 0 {
		return nil, 0, 0, nil, nil, domain.ErrMalformedHash
	}

	var digest func() hash.Hash
	switch parts[3] {
	case "sha512":
		digest = sha512.New
	case "sha256":
		digest = sha256.New
	default:
		return nil, 0, 0, nil, nil, domain.ErrMalformedHash
	}

	want, err := hex.DecodeString(parts[4])
	if err != nil || len(want) != keyLength {
		return nil, 0, 0, nil, nil, domain.ErrMalformedHash
	}

	return salt, iterations, keyLength, digest, want, nil
}
