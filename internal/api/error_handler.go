package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/identware/identity-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.) and the
	// middleware's pre-shaped token errors.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "unable to find user by username"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, "incorrect username or password"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "you can delete users only from your service"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, "invalid role"
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusForbidden, "jwt is expired, please get a new one"
	case errors.Is(err, domain.ErrTokenMalformed), errors.Is(err, domain.ErrTokenMissingClaims):
		return http.StatusForbidden, "unable to get user by jwt: token is malformed"
	case errors.Is(err, domain.ErrSecretMissing):
		// Deployment problem, not a client one: the process was started
		// without SECRET_KEY.
		log.Error().Str("path", c.Path()).Msg("token operation attempted without signing secret")
		return http.StatusInternalServerError, "token signing is not configured"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
