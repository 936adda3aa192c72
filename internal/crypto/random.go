package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// TokenBytes is the amount of entropy in tokens produced by GenerateSecureToken
const TokenBytes = 32

// GenerateSecureToken creates a cryptographically secure random token.
// Returns a base64url string without padding, safe to place in cookies,
// query parameters and JSON without further escaping.
func GenerateSecureToken() (string, error) {
	b, err := RandomBytes(TokenBytes)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// RandomBytes returns n bytes read from the system CSPRNG
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

// ConstantTimeEqual reports whether a and b are equal without leaking timing
// information about where they differ. Empty strings never match.
func ConstantTimeEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
