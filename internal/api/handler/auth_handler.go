package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/identware/identity-api/internal/core/ports"
)

// AuthHandler handles token issuance.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// IssueJWT handles POST /jwt. It exchanges credentials for a service-scoped token.
//
// @Summary      Get a JWT for a user within a service
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      jwtRequest  true  "Credentials and target service"
// @Success      200   {object}  jwtResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /jwt [post]
func (h *AuthHandler) IssueJWT(c echo.Context) error {
	var req jwtRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Service:  req.Service,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jwtResponse{JWT: token})
}
