package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticValidator map[string]string

func (v staticValidator) ValidateToken(token string) (string, error) {
	subject, ok := v[token]
	if !ok {
		return "", errors.New("invalid token")
	}
	return subject, nil
}

func serve(t *testing.T, method, path, authHeader string) (*httptest.ResponseRecorder, bool, string) {
	t.Helper()
	called := false
	subject := ""
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		subject, _ = Subject(r)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	AuthMiddleware(staticValidator{"good": "editor"}, "/health")(next).ServeHTTP(w, req)
	return w, called, subject
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	w, called, subject := serve(t, http.MethodGet, "/document", "Bearer good")
	require.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "editor", subject)
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	_, called, _ := serve(t, http.MethodGet, "/document", "bearer good")
	assert.True(t, called)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"missing scheme", "good"},
		{"wrong scheme", "Basic good"},
		{"empty token", "Bearer "},
		{"extra parts", "Bearer good extra"},
		{"unknown token", "Bearer bad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, called, _ := serve(t, http.MethodGet, "/document", tt.header)
			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
			assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
		})
	}
}

func TestAuthMiddleware_PublicPathsAndPreflight(t *testing.T) {
	_, called, _ := serve(t, http.MethodGet, "/health", "")
	assert.True(t, called)

	_, called, _ = serve(t, http.MethodOptions, "/document", "")
	assert.True(t, called)
}

func TestSubject_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := Subject(req)
	assert.False(t, ok)
}
