package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/dashlink/internal/logger"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func newService() *JWTService {
	return NewJWTService(&JWTConfig{SecretKey: secret, TokenDuration: time.Hour, Issuer: "dashlink"})
}

func TestGenerateAndValidate(t *testing.T) {
	s := newService()
	tok, err := s.Generate("alice", []string{"staff"}, true)
	require.NoError(t, err)

	claims, err := s.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID())
	assert.Equal(t, []string{"staff"}, claims.Groups)
	assert.True(t, claims.Admin)

	_, err = s.Generate("", nil, false)
	assert.Error(t, err)
}

func TestValidateTokenFailures(t *testing.T) {
	s := newService()

	expired := newService()
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Generate("alice", nil, false)
	require.NoError(t, err)

	other := NewJWTService(&JWTConfig{SecretKey: secret, TokenDuration: time.Hour, Issuer: "someone-else"})
	foreign, err := other.Generate("alice", nil, false)
	require.NoError(t, err)

	wrongKey := NewJWTService(&JWTConfig{SecretKey: []byte("another-secret-another-secret-xx"), TokenDuration: time.Hour, Issuer: "dashlink"})
	forged, err := wrongKey.Generate("alice", nil, true)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "alice", "iss": "dashlink"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", old, ErrExpiredToken},
		{"wrong issuer", foreign, ErrInvalidToken},
		{"wrong key", forged, ErrInvalidToken},
		{"alg none", none, ErrInvalidToken},
		{"garbage", "not.a.token", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExtractTokenFromBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"Bearer ", ""},
		{"Basic abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractTokenFromBearer(tt.header); got != tt.want {
			t.Errorf("ExtractTokenFromBearer(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	s := newService()
	m := NewMiddleware(s, logger.NewNop())

	var seen *Claims
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	user := m.RequireAuth(ok)
	admin := m.RequireAuth(m.RequireAdmin(ok))

	userTok, err := s.Generate("bob", []string{"staff"}, false)
	require.NoError(t, err)
	adminTok, err := s.Generate("root", nil, true)
	require.NoError(t, err)

	tests := []struct {
		name    string
		handler http.Handler
		header  string
		want    int
	}{
		{"no header", user, "", http.StatusUnauthorized},
		{"bad scheme", user, "Basic Ym9iOnB3", http.StatusUnauthorized},
		{"bad token", user, "Bearer nope", http.StatusUnauthorized},
		{"user ok", user, "Bearer " + userTok, http.StatusNoContent},
		{"user on admin route", admin, "Bearer " + userTok, http.StatusForbidden},
		{"admin ok", admin, "Bearer " + adminTok, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/links", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want >= 400 {
				assert.True(t, strings.HasPrefix(rec.Body.String(), `{"error":`))
			}
		})
	}
	require.NotNil(t, seen)
	assert.Equal(t, "root", seen.UserID())
}
