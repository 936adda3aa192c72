// Package sessiontoken issues and verifies the signed session token handed
// to browsers (cookie) and to the desktop application (deep link).
package sessiontoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dgellow/authrelay/internal/crypto"
	"github.com/dgellow/authrelay/internal/emailutil"
	"github.com/dgellow/authrelay/internal/idp"
)

// TTL is the fixed lifetime of a session token
const TTL = 30 * 24 * time.Hour

const keyInfo = "authrelay session token v1"

// ErrInvalidToken is returned for every token that fails verification.
var ErrInvalidToken = errors.New("invalid or expired session token")

// Claims is the payload of a session token
type Claims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with a key derived from the
// server secret. Rotating the secret invalidates every outstanding token.
type Codec struct {
	key []byte
	now func() time.Time
}

// Option configures a Codec
type Option func(*Codec)

// WithClock overrides the time source used for iat, exp and verification
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a codec for the given secret
func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret must not be empty")
	}

	key, err := crypto.DeriveKey(secret, keyInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}

	c := &Codec{key: key, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a new token for identity, valid for TTL from now
func (c *Codec) Issue(identity *idp.Identity) (string, Claims, error) {
	if identity == nil || identity.Subject == "" {
		return "", Claims{}, errors.New("identity has no subject")
	}

	now := c.now()
	claims := Claims{
		Email:   identity.Email,
		Name:    DisplayName(identity.FirstName, identity.LastName, identity.Email),
		Picture: identity.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", Claims{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, claims, nil
}

// Verify checks the signature, algorithm and expiry of token and returns
// its claims. Any failure yields ErrInvalidToken.
func (c *Codec) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// DisplayName joins first and last name, falling back to the email local-part
func DisplayName(first, last, email string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name != "" {
		return name
	}
	return emailutil.LocalPart(email)
}
