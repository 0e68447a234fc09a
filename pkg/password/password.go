package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 iteration count for newly hashed passwords.
	Iterations = 120000

	saltLen = 16
	keyLen  = 32

	legacyPrefix = "hash_"
)

var (
	// ErrMismatch indicates the password does not match the stored hash
	ErrMismatch = errors.New("password does not match")

	// ErrMalformedHash indicates the stored hash is not in a recognized format
	ErrMalformedHash = errors.New("malformed password hash")
)

// Hash derives a PBKDF2-SHA256 hash and encodes it as
// "pbkdf2$<iterations>$<base64 salt>$<base64 hash>".
func Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, Iterations, keyLen, sha256.New)
	return fmt.Sprintf("pbkdf2$%d$%s$%s",
		Iterations,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// Verify checks a password against a stored hash. It accepts the pbkdf2
// format produced by Hash and the legacy "hash_"+base64(password) format
// written by the previous system. The second return value reports whether
// the stored hash is legacy and should be re-hashed after a successful login.
func Verify(password, stored string) (legacy bool, err error) {
	if strings.HasPrefix(stored, legacyPrefix) {
		expected := legacyPrefix + base64.StdEncoding.EncodeToString([]byte(password))
		if subtle.ConstantTimeCompare([]byte(expected), []byte(stored)) == 1 {
			return true, nil
		}
		return true, ErrMismatch
	}

	parts := strings.Split(stored, "$")
	if len(parts) != 4 || parts[0] != "pbkdf2" {
		return false, ErrMalformedHash
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations < 1 {
		return false, ErrMalformedHash
	}

	salt, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return false, ErrMalformedHash
	}

	want, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, ErrMalformedHash
	}

	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha256.New)
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return false, ErrMismatch
	}

	return false, nil
}
