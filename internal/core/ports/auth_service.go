package ports

import "context"

// LoginInput carries the credentials presented to obtain a token. Exactly one
// of Username or Email identifies the caller; Service names the tenant the
// token will be scoped to.
type LoginInput struct {
	Username string
	Email    string
	Password string
	Service  string
}

// AuthService exchanges credentials for a service-scoped token.
type AuthService interface {
	Login(ctx context.Context, input LoginInput) (string, error)
}
