// Package flow holds the pieces of the OAuth round trip that live on the
// relay side: the CSRF nonce, the state parameter and the redirect to the
// identity provider.
package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Source tells the callback where the token should be delivered
type Source string

const (
	SourceDesktop Source = "desktop"
	SourceWeb     Source = "web"
)

// MaxDeviceIDLength bounds the opaque device identifier carried in state
const MaxDeviceIDLength = 256

// maxStateLength bounds the encoded state accepted from the callback
const maxStateLength = 4096

// ErrMalformedState is returned when a state parameter cannot be decoded
var ErrMalformedState = errors.New("malformed state parameter")

// ParseSource maps any value other than "web" to SourceDesktop
func ParseSource(s string) Source {
	if Source(strings.ToLower(strings.TrimSpace(s))) == SourceWeb {
		return SourceWeb
	}
	return SourceDesktop
}

// State is the context carried through the provider in the state parameter
type State struct {
	Nonce    string `json:"nonce"`
	DeviceID string `json:"device_id,omitempty"`
	Source   Source `json:"source"`
}

// DefaultState is the context used when the callback carries no usable state
func DefaultState() State {
	return State{Source: SourceDesktop}
}

// Encode serializes the state as compact JSON
func (s State) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}
	return string(data), nil
}

// DecodeState parses a state parameter received from the provider. On any
// failure it returns DefaultState, whose empty nonce never passes Consume,
// together with ErrMalformedState.
func DecodeState(raw string) (State, error) {
	if raw == "" || len(raw) > maxStateLength {
		return DefaultState(), ErrMalformedState
	}

	var decoded State
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return DefaultState(), fmt.Errorf("%w: %v", ErrMalformedState, err)
	}

	return State{
		Nonce:    decoded.Nonce,
		DeviceID: normalizeDeviceID(decoded.DeviceID),
		Source:   ParseSource(string(decoded.Source)),
	}, nil
}

func normalizeDeviceID(id string) string {
	if len(id) > MaxDeviceIDLength {
		return ""
	}
	return id
}
