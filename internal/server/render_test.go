package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgellow/authrelay/internal/sessiontoken"
)

func TestRenderer_DeepLink(t *testing.T) {
	r := NewRenderer("myapp")
	assert.Equal(t, "myapp://auth/callback?token=abc.def.ghi", r.DeepLink("abc.def.ghi"))
	assert.Equal(t, "myapp://auth/callback?token=a%2Bb%3D", r.DeepLink("a+b="))
}

func TestRenderer_DesktopPage(t *testing.T) {
	r := NewRenderer("myapp")
	w := httptest.NewRecorder()

	r.DesktopPage(w, sessiontoken.Claims{Name: "Jane", Email: "jane@example.com"}, "abc.def.ghi")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, `href="myapp://auth/callback?token=abc.def.ghi"`)
	assert.Contains(t, body, "Jane")
	assert.Contains(t, body, "jane@example.com")
	assert.NotContains(t, body, "ZgotmplZ", "custom scheme must survive URL sanitizing")
}

func TestRenderer_AccountPageFiltersUnsafePicture(t *testing.T) {
	r := NewRenderer("myapp")

	tests := []struct {
		name        string
		picture     string
		wantContain string
		wantAbsent  string
	}{
		{"https picture", "https://cdn.example.com/me.png", `src="https://cdn.example.com/me.png"`, ""},
		{"javascript picture", "javascript:alert(1)", "#ZgotmplZ", "javascript:alert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.AccountPage(w, &sessiontoken.Claims{
				Name:             "Jane",
				Picture:          tt.picture,
				RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
			})

			body := w.Body.String()
			assert.Contains(t, body, tt.wantContain)
			if tt.wantAbsent != "" {
				assert.NotContains(t, body, tt.wantAbsent)
			}
		})
	}
}

func TestRenderer_ErrorPage(t *testing.T) {
	r := NewRenderer("myapp")

	w := httptest.NewRecorder()
	r.ErrorPage(w, http.StatusForbidden, ErrorPageData{
		Title:    "Denied",
		Message:  "Try again",
		RetryURL: "/auth/login?source=web",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `href="/auth/login?source=web"`)
	assert.NotContains(t, w.Body.String(), "<pre>")

	w = httptest.NewRecorder()
	r.ErrorPage(w, http.StatusInternalServerError, ErrorPageData{Title: "Failed", Detail: "upstream said <no>"})
	assert.Contains(t, w.Body.String(), "<pre>upstream said &lt;no&gt;</pre>")
}

func TestRenderer_UnconfiguredPage(t *testing.T) {
	r := NewRenderer("myapp")
	w := httptest.NewRecorder()

	r.UnconfiguredPage(w, http.StatusServiceUnavailable)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Sign-in is not available")
}
