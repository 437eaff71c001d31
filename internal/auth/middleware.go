// Package auth provides API key and JWT authentication for the HTTP API.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// APIKeyHeader is the header carrying an API key
	APIKeyHeader = "X-API-Key"

	principalContextKey contextKey = "principal"
)

// ErrMissingCredentials is returned when a request carries neither an API key nor a bearer token
var ErrMissingCredentials = errors.New("missing credentials")

// Principal identifies the authenticated caller.
type Principal struct {
	Subject string
	Method  string // "api_key" or "jwt"
}

// Authenticator validates API keys and bearer tokens.
type Authenticator struct {
	apiKeys [][]byte
	jwt     *JWTManager
	logger  *slog.Logger
}

// NewAuthenticator creates an authenticator. Either source may be empty;
// jwtManager may be nil.
func NewAuthenticator(apiKeys []string, jwtManager *JWTManager, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Authenticator{jwt: jwtManager, logger: logger}
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			a.apiKeys = append(a.apiKeys, []byte(k))
		}
	}
	return a
}

// Enabled reports whether any credential source is configured.
func (a *Authenticator) Enabled() bool {
	return len(a.apiKeys) > 0 || a.jwt != nil
}

// Middleware rejects requests without a valid API key or bearer token.
// With no credential source configured it passes every request through.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := a.authenticate(r)
		if err != nil {
			a.logger.Debug("authentication failed", "path", r.URL.Path, "error", err)
			writeUnauthorized(w, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), principalContextKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) authenticate(r *http.Request) (*Principal, error) {
	if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
		if a.validAPIKey(key) {
			return &Principal{Subject: "api-key", Method: "api_key"}, nil
		}
		return nil, ErrInvalidToken
	}

	authz := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authz, "Bearer "); ok && a.jwt != nil {
		claims, err := a.jwt.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			return nil, err
		}
		return &Principal{Subject: claims.Subject, Method: "jwt"}, nil
	}

	return nil, ErrMissingCredentials
}

func (a *Authenticator) validAPIKey(key string) bool {
	candidate := []byte(key)
	for _, k := range a.apiKeys {
		if subtle.ConstantTimeCompare(candidate, k) == 1 {
			return true
		}
	}
	return false
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="rankeval"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// PrincipalFromContext extracts the caller from context
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	return p, ok
}
