package service

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/identware/identity-api/internal/api/metrics"
	"github.com/identware/identity-api/internal/core/domain"
	"github.com/identware/identity-api/internal/core/ports"
)

// AuthService exchanges credentials for service-scoped tokens.
type AuthService struct {
	repo   ports.DirectoryRepository
	tokens ports.TokenService
	logger zerolog.Logger
}

func NewAuthService(repo ports.DirectoryRepository, tokens ports.TokenService, logger zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, logger: logger}
}

// Login resolves the caller within the target service, verifies the password
// and mints a token bound to that service. Identities without a grant in the
// service are reported as not found; the global namespace is never consulted
// here, so membership in other services leaks nothing.
func (s *AuthService) Login(ctx context.Context, input ports.LoginInput) (string, error) {
	if input.Password == "" || input.Service == "" || (input.Username == "" && input.Email == "") {
		return "", domain.ErrInvalidCredentials
	}

	var (
		m   *domain.Membership
		err error
	)
	if input.Username != "" {
		m, err = s.repo.FindByUsernameInService(ctx, input.Username, input.Service)
	} else {
		m, err = s.repo.FindByEmailInService(ctx, input.Email, input.Service)
	}
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("not_found").Inc()
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(m.User.PasswordHash), []byte(input.Password)) != nil {
		metrics.LoginsTotal.WithLabelValues("bad_password").Inc()
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(m.User.Username, input.Service)
	if err != nil {
		return "", err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	metrics.TokensIssuedTotal.Inc()
	s.logger.Info().
		Str("username", m.User.Username).
		Str("service", input.Service).
		Msg("token issued")

	return token, nil
}
