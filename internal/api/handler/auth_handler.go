package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zentria/afe-api/internal/core/domain"
	"github.com/zentria/afe-api/internal/core/ports"
)

// AuthHandler handles login, OAuth callback, logout, and the self profile.
type AuthHandler struct {
	authService ports.AuthService
	sessions    ports.SessionStore
}

func NewAuthHandler(authService ports.AuthService, sessions ports.SessionStore) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	GroupID string `json:"grupo_id,omitempty"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
	// Landing is the role's designated landing view.
	Landing string `json:"landing"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, GroupID: u.GroupID}
}

// Login authenticates with email and password and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		// User-not-found collapses into invalid credentials so the endpoint
		// does not reveal which addresses have accounts.
		if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		}
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Token:   result.Token,
		User:    toUserResponse(result.User),
		Landing: domain.LandingPath(result.User.Role),
	})
}

// OAuthCallback completes the provider redirect. Duplicate completions for
// the same state are dropped without an error surface.
//
// @Summary      OAuth authorization-code callback
// @Tags         auth
// @Produce      json
// @Param        code   query     string  true  "Authorization code"
// @Param        state  query     string  true  "Opaque state from the authorization request"
// @Success      200    {object}  authResponse
// @Success      204    "Duplicate completion, already processed"
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /auth/callback [get]
func (h *AuthHandler) OAuthCallback(c echo.Context) error {
	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" || state == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "code and state are required"})
	}

	result, err := h.authService.ExchangeOAuthCode(c.Request().Context(), code, state)
	if err != nil {
		if errors.Is(err, domain.ErrCallbackReplayed) {
			return c.NoContent(http.StatusNoContent)
		}
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "no account for this identity"})
		}
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Token:   result.Token,
		User:    toUserResponse(result.User),
		Landing: domain.LandingPath(result.User.Role),
	})
}

// Logout clears the session; afterwards the token no longer authenticates.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      204  "Session cleared"
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	if err := h.sessions.Logout(c.Request().Context(), sess.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type meResponse struct {
	User userResponse `json:"user"`
	// TenantHint is the persisted group scope, absent for superadmin.
	TenantHint string `json:"tenant_hint,omitempty"`
	Landing    string `json:"landing"`
	Loading    bool   `json:"loading"`
}

// Me returns the current session's profile and scope.
//
// @Summary      Current profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	hint, err := h.sessions.TenantHint(c.Request().Context(), sess.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, meResponse{
		User: userResponse{
			ID:      sess.UserID,
			Name:    sess.Name,
			Email:   sess.Email,
			Role:    sess.Role,
			GroupID: sess.GroupID,
		},
		TenantHint: hint,
		Landing:    domain.LandingPath(sess.Role),
		Loading:    h.sessions.Loading(sess.UserID),
	})
}

// RefreshMe re-reads the profile from the user store and re-persists the
// session's profile fields, so changes applied by an administrator become
// visible without a re-login.
//
// @Summary      Refresh own profile from the user store
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      404  {object}  map[string]string
// @Router       /auth/me/refresh [post]
func (h *AuthHandler) RefreshMe(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	user, err := h.authService.RefreshProfile(c.Request().Context(), sess.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

type updateMeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

// UpdateMe applies a self-edit of name and email.
//
// @Summary      Update own profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateMeRequest  true  "Profile fields"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/me [put]
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req updateMeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	updated, err := h.authService.UpdateSelf(c.Request().Context(), sess.UserID, req.Name, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(updated))
}

// Dashboard routes each role deterministically to its designated landing
// view: superadmin is redirected to the administrative landing, every other
// role stays on the operational one.
//
// @Summary      Role-routed dashboard landing
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Success      302  "Superadmin redirect to the administrative landing"
// @Router       /dashboard [get]
func (h *AuthHandler) Dashboard(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	landing := domain.LandingPath(sess.Role)
	if landing != c.Path() {
		return c.Redirect(http.StatusFound, landing)
	}
	return c.JSON(http.StatusOK, map[string]string{"view": "dashboard", "role": sess.Role})
}
