package ports

import "github.com/identware/identity-api/internal/core/domain"

// TokenService issues and verifies service-scoped bearer tokens.
type TokenService interface {
	// Issue mints a signed, time-bound token binding username to service.
	Issue(username, service string) (string, error)

	// Verify decodes and validates a token. It fails with
	// domain.ErrTokenMalformed when the token cannot be decoded or its
	// signature does not check out, domain.ErrTokenExpired when past expiry
	// beyond the clock-skew leeway, and domain.ErrTokenMissingClaims when
	// username or service is absent from the payload.
	Verify(token string) (*domain.Claims, error)
}
