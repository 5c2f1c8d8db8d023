package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/identware/identity-api/internal/core/domain"
	"github.com/identware/identity-api/internal/core/ports"
)

// UserHandler handles the role-gated user administration endpoints. All
// routes sit behind the Auth and RBAC(admin) middlewares; the tenant scope
// comes from the verified token, never from the request body.
type UserHandler struct {
	users ports.UserAdminService
}

func NewUserHandler(users ports.UserAdminService) *UserHandler {
	return &UserHandler{users: users}
}

// List handles GET /users, a paginated listing of the admin's service.
//
// @Summary      List users of the caller's service
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int  false  "Page number, 1-based"   default(1)
// @Param        page_size  query     int  false  "Items per page"         default(100)
// @Success      200        {object}  userListResponse
// @Failure      400        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	service, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	page, err := queryInt(c, "page", 1, 1)
	if err != nil {
		return err
	}
	pageSize, err := queryInt(c, "page_size", 100, 0)
	if err != nil {
		return err
	}

	result, err := h.users.ListUsers(c.Request().Context(), ports.ListUsersInput{
		Service:  service,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return err
	}

	resp := userListResponse{
		Users:       make([]userListItemResponse, 0, len(result.Users)),
		IsFinalPage: result.IsFinalPage,
	}
	for _, u := range result.Users {
		resp.Users = append(resp.Users, userListItemResponse{
			Username: u.Username,
			Email:    u.Email,
			Role:     string(u.Role),
		})
	}

	return c.JSON(http.StatusOK, resp)
}

// Create handles POST /users. It registers a user in the admin's service.
//
// @Summary      Create a user in the caller's service
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "New user credentials"
// @Success      200   {object}  createdResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	service, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.users.CreateUser(c.Request().Context(), req.Username, req.Password, service); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, createdResponse{Created: true})
}

// ChangeAccess handles PUT /users/access. It grants or changes the target's
// role within the admin's service.
//
// @Summary      Change a user's role in the caller's service
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changeAccessRequest  true  "Target user and role"
// @Success      200   {object}  updatedResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /users/access [put]
func (h *UserHandler) ChangeAccess(c echo.Context) error {
	service, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req changeAccessRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.users.ChangeAccess(c.Request().Context(), req.Username, domain.Role(req.Access), service); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updatedResponse{Updated: true})
}

// Delete handles DELETE /users. It removes a member of the admin's service.
//
// @Summary      Delete a user belonging to the caller's service
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      deleteUserRequest  true  "Target user"
// @Success      200   {object}  deletedResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /users [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	service, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req deleteUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.users.DeleteUser(c.Request().Context(), req.Username, service); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, deletedResponse{Deleted: true})
}

// queryInt parses an optional integer query parameter, rejecting values below
// min with a 400.
func queryInt(c echo.Context, name string, def, min int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer >= "+strconv.Itoa(min))
	}
	return v, nil
}
