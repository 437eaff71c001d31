package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager(DefaultJWTConfig("secret"))

	token, err := m.GenerateToken("dashboard", "Search quality dashboard")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "dashboard", claims.Subject)
	assert.Equal(t, "Search quality dashboard", claims.Name)
	assert.Equal(t, "rankeval", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTManager_RejectsEmptySubject(t *testing.T) {
	m := NewJWTManager(DefaultJWTConfig("secret"))
	_, err := m.GenerateToken("", "")
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	token, err := NewJWTManager(DefaultJWTConfig("one")).GenerateToken("svc", "")
	require.NoError(t, err)

	_, err = NewJWTManager(DefaultJWTConfig("two")).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_ExpiredAndRefresh(t *testing.T) {
	m := NewJWTManager(DefaultJWTConfig("secret"))

	token, err := m.GenerateTokenWithExpiry("svc", "n", -time.Minute)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	expiry, err := m.TokenExpiry(token)
	require.NoError(t, err)
	assert.True(t, expiry.Before(time.Now()))

	refreshed, err := m.RefreshToken(token)
	require.NoError(t, err)
	claims, err := m.ValidateToken(refreshed)
	require.NoError(t, err)
	assert.Equal(t, "svc", claims.Subject)
	assert.Equal(t, "n", claims.Name)
}

func TestJWTManager_RefreshRejectsForgedToken(t *testing.T) {
	token, err := NewJWTManager(DefaultJWTConfig("other")).GenerateTokenWithExpiry("svc", "", -time.Minute)
	require.NoError(t, err)

	_, err = NewJWTManager(DefaultJWTConfig("secret")).RefreshToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func protected(a *Authenticator) http.Handler {
	return a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if ok {
			_, _ = w.Write([]byte(p.Method + ":" + p.Subject))
			return
		}
		_, _ = w.Write([]byte("anonymous"))
	}))
}

func TestMiddleware(t *testing.T) {
	m := NewJWTManager(DefaultJWTConfig("secret"))
	token, err := m.GenerateToken("cli", "")
	require.NoError(t, err)

	h := protected(NewAuthenticator([]string{"key-1", " "}, m, nil))

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
		wantBody   string
	}{
		{"api key", APIKeyHeader, "key-1", http.StatusOK, "api_key:api-key"},
		{"wrong api key", APIKeyHeader, "key-2", http.StatusUnauthorized, ""},
		{"bearer token", "Authorization", "Bearer " + token, http.StatusOK, "jwt:cli"},
		{"bad bearer token", "Authorization", "Bearer nope", http.StatusUnauthorized, ""},
		{"no credentials", "", "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), "error")
			}
		})
	}
}

func TestMiddleware_DisabledPassesThrough(t *testing.T) {
	a := NewAuthenticator(nil, nil, nil)
	assert.False(t, a.Enabled())

	rec := httptest.NewRecorder()
	protected(a).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}
