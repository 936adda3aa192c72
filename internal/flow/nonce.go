package flow

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dgellow/authrelay/internal/cookie"
	"github.com/dgellow/authrelay/internal/crypto"
)

// ErrNonceMismatch is returned when the state nonce does not match the cookie
var ErrNonceMismatch = errors.New("state nonce does not match nonce cookie")

// Begin generates a fresh nonce and the cookie directive that binds it to
// the browser starting the flow
func Begin(jar *cookie.Jar) (string, *http.Cookie, error) {
	nonce, err := crypto.GenerateSecureToken()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, jar.Nonce(nonce), nil
}

// Consume checks the nonce received in state against the cookie value.
// The caller clears the nonce cookie whatever the result.
func Consume(received, cookieValue string) error {
	if !crypto.ConstantTimeEqual(received, cookieValue) {
		return ErrNonceMismatch
	}
	return nil
}
