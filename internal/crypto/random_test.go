package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureToken(t *testing.T) {
	token, err := GenerateSecureToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	// Each call generates a unique token
	token2, err := GenerateSecureToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, TokenBytes)
	assert.NotContains(t, token, "=")
}

func TestConstantTimeEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"equal", "abc", "abc", true},
		{"different", "abc", "abd", false},
		{"different length", "abc", "abcd", false},
		{"both empty", "", "", false},
		{"one empty", "abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConstantTimeEqual(tt.a, tt.b))
		})
	}
}

func TestDeriveKey(t *testing.T) {
	secret := []byte("this-is-a-very-long-session-secret-value")

	k1, err := DeriveKey(secret, "purpose a")
	require.NoError(t, err)
	assert.Len(t, k1, KeySize)

	again, err := DeriveKey(secret, "purpose a")
	require.NoError(t, err)
	assert.Equal(t, k1, again)

	k2, err := DeriveKey(secret, "purpose b")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	_, err = DeriveKey(nil, "purpose a")
	assert.Error(t, err)
}
