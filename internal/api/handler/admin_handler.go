package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zentria/afe-api/internal/core/domain"
	"github.com/zentria/afe-api/internal/core/ports"
)

// AdminHandler handles the user and group administration endpoints.
type AdminHandler struct {
	users       ports.UserRepository
	authService ports.AuthService
}

func NewAdminHandler(users ports.UserRepository, authService ports.AuthService) *AdminHandler {
	return &AdminHandler{users: users, authService: authService}
}

type createUserRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"     validate:"required,oneof=superadmin admin responsable contador viewer"`
	GroupID  string `json:"grupo_id"`
}

type updateUserRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email" validate:"omitempty,email"`
	Role    string `json:"role"  validate:"omitempty,oneof=superadmin admin responsable contador viewer"`
	GroupID string `json:"grupo_id"`
}

type listUsersResponse struct {
	Items []userResponse `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// adminScope returns the group filter the acting session may administer:
// superadmin manages globally, admin only its own group. An admin without a
// group administers nothing, so the request is refused instead of widening
// to the global view.
func adminScope(sess domain.Session) (string, error) {
	if sess.Role == domain.RoleSuperadmin {
		return "", nil
	}
	if sess.GroupID == "" {
		return "", echo.NewHTTPError(http.StatusForbidden, "access forbidden")
	}
	return sess.GroupID, nil
}

// ListUsers handles GET /v1/admin/users.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        role    query     string  false  "Filter by role"
// @Param        search  query     string  false  "Partial match on name or email"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Rows per page"
// @Success      200     {object}  listUsersResponse
// @Router       /v1/admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	scope, err := adminScope(sess)
	if err != nil {
		return err
	}
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	filter := ports.ListUsersFilter{
		GroupID: scope,
		Role:    c.QueryParam("role"),
		Search:  c.QueryParam("search"),
		Page:    page,
		Limit:   limit,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	users, total, err := h.users.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	items := make([]userResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, listUsersResponse{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// CreateUser handles POST /v1/admin/users.
//
// @Summary      Create a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "User details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/admin/users [post]
func (h *AdminHandler) CreateUser(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	// Only superadmin can mint superadmins or create users outside its group.
	if sess.Role != domain.RoleSuperadmin {
		if req.Role == domain.RoleSuperadmin {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "access forbidden"})
		}
		scope, err := adminScope(sess)
		if err != nil {
			return err
		}
		req.GroupID = scope
	}

	user, err := h.authService.Register(c.Request().Context(), req.Name, req.Email, req.Password, req.Role, req.GroupID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// UpdateUser handles PUT /v1/admin/users/:id.
//
// @Summary      Update a user's profile, role, or group
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to update"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/admin/users/{id} [put]
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	target, err := h.users.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	// Admins stay inside their group and cannot touch superadmins.
	if sess.Role != domain.RoleSuperadmin {
		scope, err := adminScope(sess)
		if err != nil {
			return err
		}
		if target.GroupID != scope || target.Role == domain.RoleSuperadmin || req.Role == domain.RoleSuperadmin {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "access forbidden"})
		}
	}

	if req.Name != "" {
		target.Name = req.Name
	}
	if req.Email != "" {
		target.Email = req.Email
	}
	if req.Role != "" {
		target.Role = req.Role
	}
	if req.GroupID != "" {
		target.GroupID = req.GroupID
	}
	// A superadmin never carries a group assignment; every other role must
	// end up with one, or its sessions would have no scope to resolve.
	if target.Role == domain.RoleSuperadmin {
		target.GroupID = ""
	} else if target.GroupID == "" {
		return domain.ErrGroupRequired
	}

	updated, err := h.users.UpdateProfile(c.Request().Context(), target)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(updated))
}

// DeleteUser handles DELETE /v1/admin/users/:id.
//
// @Summary      Delete a user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "User id"
// @Success      204  "User deleted"
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	target, err := h.users.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if sess.Role != domain.RoleSuperadmin {
		scope, err := adminScope(sess)
		if err != nil {
			return err
		}
		if target.GroupID != scope || target.Role == domain.RoleSuperadmin {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "access forbidden"})
		}
	}
	if target.ID == sess.UserID {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "cannot delete own account"})
	}

	if err := h.users.Delete(c.Request().Context(), target.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListGroups handles GET /v1/admin/groups.
//
// @Summary      List groups
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string][]string
// @Router       /v1/admin/groups [get]
func (h *AdminHandler) ListGroups(c echo.Context) error {
	groups, err := h.users.ListGroups(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string][]string{"groups": groups})
}
