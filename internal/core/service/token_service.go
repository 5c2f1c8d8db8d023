package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/identware/identity-api/internal/core/domain"
)

const (
	defaultTokenTTL = 24 * time.Hour

	// verifyLeeway tolerates clock skew between the issuing and verifying
	// hosts. A token is accepted until exp + verifyLeeway.
	verifyLeeway = 30 * time.Second
)

// TokenService implements HS256 issuance and verification of service-scoped
// tokens. The signing secret is lazily required: a TokenService with an empty
// secret constructs fine but fails every Issue/Verify call, so the process
// can serve non-token endpoints without it.
type TokenService struct {
	secret string
	ttl    time.Duration
}

// NewTokenService builds a token service signing with secret. A zero ttl
// selects the default; a negative ttl mints already-expired tokens, which the
// tests use to probe the leeway boundary.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl == 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{secret: secret, ttl: ttl}
}

// Issue mints a token with claims {username, service, exp}.
func (s *TokenService) Issue(username, service string) (string, error) {
	if s.secret == "" {
		return "", domain.ErrSecretMissing
	}

	claims := jwt.MapClaims{
		"username": username,
		"service":  service,
		"exp":      time.Now().Add(s.ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.secret))
}

// Verify decodes and validates a token against the server secret.
func (s *TokenService) Verify(token string) (*domain.Claims, error) {
	if s.secret == "" {
		return nil, domain.ErrSecretMissing
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.secret), nil
	}, jwt.WithLeeway(verifyLeeway))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenMalformed
	}
	if !tkn.Valid {
		return nil, domain.ErrTokenMalformed
	}

	username, _ := claims["username"].(string)
	service, _ := claims["service"].(string)
	if username == "" || service == "" {
		return nil, domain.ErrTokenMissingClaims
	}

	out := &domain.Claims{Username: username, Service: service}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
