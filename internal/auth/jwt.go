package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// Claims identify a caller of the comparison API. Subject is the client
// identity logged with each request; Name is an optional display label.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// JWTConfig configures token signing. Expiry defaults to 24h and the
// signing method to HS256.
type JWTConfig struct {
	Secret        string
	Expiry        time.Duration
	Issuer        string
	SigningMethod jwt.SigningMethod
}

// DefaultJWTConfig returns an HS256 configuration issued as "rankeval".
func DefaultJWTConfig(secret string) *JWTConfig {
	return &JWTConfig{
		Secret:        secret,
		Expiry:        24 * time.Hour,
		Issuer:        "rankeval",
		SigningMethod: jwt.SigningMethodHS256,
	}
}

// JWTManager mints and checks bearer tokens for the HTTP API.
type JWTManager struct {
	config *JWTConfig
}

// NewJWTManager fills in config defaults and returns a manager.
func NewJWTManager(config *JWTConfig) *JWTManager {
	if config.SigningMethod == nil {
		config.SigningMethod = jwt.SigningMethodHS256
	}
	if config.Expiry <= 0 {
		config.Expiry = 24 * time.Hour
	}
	return &JWTManager{config: config}
}

// GenerateToken mints a token for subject with the configured expiry.
func (m *JWTManager) GenerateToken(subject, name string) (string, error) {
	return m.GenerateTokenWithExpiry(subject, name, m.config.Expiry)
}

// GenerateTokenWithExpiry mints a token for subject that expires after expiry.
// Used by `rankeval token --expiry`.
func (m *JWTManager) GenerateTokenWithExpiry(subject, name string, expiry time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: subject is required", ErrInvalidClaims)
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    m.config.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			NotBefore: jwt.NewNumericDate(now),
		},
		Name: name,
	}

	token := jwt.NewWithClaims(m.config.SigningMethod, claims)
	return token.SignedString([]byte(m.config.Secret))
}

// ValidateToken checks signature, algorithm, time claims and subject.
// An expired token yields ErrExpiredToken rather than ErrInvalidToken.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, m.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}

// RefreshToken re-mints a token for the same subject and name. A token whose
// only fault is its age can still be refreshed; a bad signature cannot.
func (m *JWTManager) RefreshToken(tokenString string) (string, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		if !errors.Is(err, ErrExpiredToken) {
			return "", err
		}
		if claims, err = m.parseUnverifiedExpiry(tokenString); err != nil {
			return "", err
		}
	}

	return m.GenerateToken(claims.Subject, claims.Name)
}

// TokenExpiry reports when tokenString expires, even if it already has.
func (m *JWTManager) TokenExpiry(tokenString string) (time.Time, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		if !errors.Is(err, ErrExpiredToken) {
			return time.Time{}, err
		}
		if claims, err = m.parseUnverifiedExpiry(tokenString); err != nil {
			return time.Time{}, err
		}
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no expiry")
	}

	return claims.ExpiresAt.Time, nil
}

// parseUnverifiedExpiry re-parses a signature-valid token without checking
// time-based claims.
func (m *JWTManager) parseUnverifiedExpiry(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, m.keyFunc, jwt.WithoutClaimsValidation())
	if err != nil || token == nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

func (m *JWTManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method.Alg() != m.config.SigningMethod.Alg() {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return []byte(m.config.Secret), nil
}
