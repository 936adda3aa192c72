package urlutil

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinPath(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		paths []string
		want  string
	}{
		{
			name:  "simple join",
			base:  "https://example.com",
			paths: []string{"auth", "callback"},
			want:  "https://example.com/auth/callback",
		},
		{
			name:  "base with trailing slash",
			base:  "https://example.com/",
			paths: []string{"account"},
			want:  "https://example.com/account",
		},
		{
			name:  "base with path",
			base:  "https://example.com/relay",
			paths: []string{"auth", "login"},
			want:  "https://example.com/relay/auth/login",
		},
		{
			name:  "trailing slash preserved",
			base:  "https://example.com",
			paths: []string{"static/"},
			want:  "https://example.com/static/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JoinPath(tt.base, tt.paths...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidScheme(t *testing.T) {
	tests := []struct {
		scheme string
		want   bool
	}{
		{"authrelay", true},
		{"my-app", true},
		{"com.example.app", true},
		{"app+v2", true},
		{"", false},
		{"1app", false},
		{"-app", false},
		{"my app", false},
		{"app:", false},
	}

	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidScheme(tt.scheme))
		})
	}
}

func TestAppLink(t *testing.T) {
	link := AppLink("authrelay", "auth/callback", url.Values{"token": {"a.b+c/d="}})
	assert.Equal(t, "authrelay://auth/callback?token=a.b%2Bc%2Fd%3D", link)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "authrelay", parsed.Scheme)
	assert.Equal(t, "a.b+c/d=", parsed.Query().Get("token"))

	assert.Equal(t, "authrelay://auth/callback", AppLink("authrelay", "/auth/callback", nil))
}
