package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenTTL is the lifetime of a signed service token.
	DefaultTokenTTL = 24 * time.Hour
	// tokenRefreshSkew renews a cached token this long before it expires.
	tokenRefreshSkew = time.Minute
)

// ErrNoCredentials is returned by a token source with nothing to sign or send.
var ErrNoCredentials = errors.New("no credentials configured")

// TokenSource supplies the value of the x-access-token header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a pre-issued token.
type StaticToken string

// Token returns the token unchanged.
func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", ErrNoCredentials
	}
	return string(t), nil
}

// JWTSource signs HS256 service tokens and caches each one until shortly
// before it expires.
type JWTSource struct {
	secret  []byte
	subject string
	ttl     time.Duration
	now     func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewJWTSource returns a source signing tokens for subject with secret.
func NewJWTSource(secret, subject string, ttl time.Duration) *JWTSource {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTSource{
		secret:  []byte(secret),
		subject: subject,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Token returns the cached token or signs a new one.
func (s *JWTSource) Token(context.Context) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNoCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Add(tokenRefreshSkew).Before(s.expiresAt) {
		return s.token, nil
	}

	expiresAt := now.Add(s.ttl)
	claims := &jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Subject:   s.subject,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign service token: %w", err)
	}

	s.token = signed
	s.expiresAt = expiresAt
	return signed, nil
}
