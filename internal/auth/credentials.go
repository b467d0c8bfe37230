package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// PasswordIterations is the PBKDF2 work factor for customer passwords.
	PasswordIterations = 100000
	// PasswordKeyLength is the derived key size in bytes (hex doubles it).
	PasswordKeyLength = 64

	saltBytes  = 16
	tokenBytes = 24
)

// DerivePasswordHash runs PBKDF2-SHA512 over password with the hex salt
// and returns the derived key hex-encoded.
// The salt string itself (not its decoded bytes) is the PBKDF2 salt.
func DerivePasswordHash(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), PasswordIterations, PasswordKeyLength, sha512.New)
	return hex.EncodeToString(key)
}

// VerifyPassword recomputes the hash and compares it in constant time.
// A malformed or empty stored hash never matches.
func VerifyPassword(password, hash, salt string) bool {
	if hash == "" || salt == "" {
		return false
	}
	derived := DerivePasswordHash(password, salt)
	if len(derived) != len(hash) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(derived), []byte(hash)) == 1
}

// NewSalt returns 16 random bytes, hex-encoded.
func NewSalt() (string, error) {
	return randomHex(saltBytes)
}

// GenerateToken returns a 24-byte random bearer token, hex-encoded.
// Callers hand the token to the client and persist only HashToken(token).
func GenerateToken() (string, error) {
	return randomHex(tokenBytes)
}

// HashToken is the server-side form of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ConstantTimeEqual compares two secrets without leaking where they differ.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
