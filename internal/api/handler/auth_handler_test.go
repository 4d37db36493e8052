package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/zentria/afe-api/internal/api/middleware"
	"github.com/zentria/afe-api/internal/core/domain"
	"github.com/zentria/afe-api/internal/core/ports"
)

type stubAuthService struct {
	loginResult    *ports.LoginResult
	loginErr       error
	exchangeResult *ports.LoginResult
	exchangeErr    error
	updatedUser    *domain.User
	refreshCalls   []string
}

func (s *stubAuthService) Login(_ context.Context, _, _ string) (*ports.LoginResult, error) {
	return s.loginResult, s.loginErr
}

func (s *stubAuthService) ExchangeOAuthCode(_ context.Context, _, _ string) (*ports.LoginResult, error) {
	return s.exchangeResult, s.exchangeErr
}

func (s *stubAuthService) RefreshProfile(_ context.Context, userID string) (*domain.User, error) {
	s.refreshCalls = append(s.refreshCalls, userID)
	return s.updatedUser, nil
}

func (s *stubAuthService) Register(_ context.Context, _, _, _, _, _ string) (*domain.User, error) {
	return s.updatedUser, nil
}

func (s *stubAuthService) UpdateSelf(_ context.Context, _, _, _ string) (*domain.User, error) {
	return s.updatedUser, nil
}

type sessionsStub struct {
	logoutCalls []string
	hint        string
	loading     bool
}

func (s *sessionsStub) SetCredentials(_ context.Context, _ domain.User, _, _ string) error { return nil }

func (s *sessionsStub) Logout(_ context.Context, userID string) error {
	s.logoutCalls = append(s.logoutCalls, userID)
	return nil
}

func (s *sessionsStub) UpdateUser(_ context.Context, _ domain.User) error { return nil }

func (s *sessionsStub) Load(_ context.Context, _ string) (domain.Session, error) {
	return domain.AnonymousSession(), nil
}

func (s *sessionsStub) TenantHint(_ context.Context, _ string) (string, error) {
	return s.hint, nil
}

func (s *sessionsStub) SetLoading(_ string, _ bool) {}
func (s *sessionsStub) Loading(_ string) bool       { return s.loading }

func newEchoContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func adminSession() domain.Session {
	return domain.Session{
		UserID:        "u1",
		Name:          "Ana",
		Email:         "ana@example.com",
		Role:          domain.RoleAdmin,
		GroupID:       "7",
		Token:         "tok",
		Authenticated: true,
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	svc := &stubAuthService{loginResult: &ports.LoginResult{
		Token: "tok-1",
		User:  &domain.User{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: domain.RoleAdmin, GroupID: "7"},
	}}
	h := NewAuthHandler(svc, &sessionsStub{})

	c, rec := newEchoContext(t, http.MethodPost, "/auth/login", `{"email":"ana@example.com","password":"pass"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token   string `json:"token"`
		Landing string `json:"landing"`
		User    struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token != "tok-1" {
		t.Fatalf("expected token in response, got %q", resp.Token)
	}
	if resp.Landing != domain.OperationalLandingPath {
		t.Fatalf("admin landing should be %s, got %s", domain.OperationalLandingPath, resp.Landing)
	}
}

func TestAuthHandler_Login_SuperadminLanding(t *testing.T) {
	svc := &stubAuthService{loginResult: &ports.LoginResult{
		Token: "tok-2",
		User:  &domain.User{ID: "root", Role: domain.RoleSuperadmin},
	}}
	h := NewAuthHandler(svc, &sessionsStub{})

	c, rec := newEchoContext(t, http.MethodPost, "/auth/login", `{"email":"root@example.com","password":"pass"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login handler error: %v", err)
	}

	var resp struct {
		Landing string `json:"landing"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Landing != domain.AdminLandingPath {
		t.Fatalf("superadmin landing should be %s, got %s", domain.AdminLandingPath, resp.Landing)
	}
}

func TestAuthHandler_Login_UnknownUserCollapsesTo401(t *testing.T) {
	for _, stubErr := range []error{domain.ErrUserNotFound, domain.ErrInvalidCredentials} {
		svc := &stubAuthService{loginErr: stubErr}
		h := NewAuthHandler(svc, &sessionsStub{})

		c, rec := newEchoContext(t, http.MethodPost, "/auth/login", `{"email":"x@example.com","password":"bad"}`)
		if err := h.Login(c); err != nil {
			t.Fatalf("login handler error: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%v: expected 401, got %d", stubErr, rec.Code)
		}
		// The body must not distinguish missing accounts from bad passwords.
		if !strings.Contains(rec.Body.String(), "invalid credentials") {
			t.Fatalf("%v: unexpected body %s", stubErr, rec.Body.String())
		}
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, &sessionsStub{})

	c, rec := newEchoContext(t, http.MethodPost, "/auth/login", `{"email":"not-an-email"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_OAuthCallback_Replay204(t *testing.T) {
	svc := &stubAuthService{exchangeErr: domain.ErrCallbackReplayed}
	h := NewAuthHandler(svc, &sessionsStub{})

	c, rec := newEchoContext(t, http.MethodGet, "/auth/callback?code=c1&state=s1", "")
	if err := h.OAuthCallback(c); err != nil {
		t.Fatalf("callback handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("replay should yield 204, got %d", rec.Code)
	}
}

func TestAuthHandler_OAuthCallback_MissingState(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, &sessionsStub{})

	c, rec := newEchoContext(t, http.MethodGet, "/auth/callback?code=c1", "")
	if err := h.OAuthCallback(c); err != nil {
		t.Fatalf("callback handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	sessions := &sessionsStub{}
	h := NewAuthHandler(&stubAuthService{}, sessions)

	c, rec := newEchoContext(t, http.MethodPost, "/auth/logout", "")
	c.Set(middleware.SessionKey, adminSession())

	if err := h.Logout(c); err != nil {
		t.Fatalf("logout handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(sessions.logoutCalls) != 1 || sessions.logoutCalls[0] != "u1" {
		t.Fatalf("expected logout for u1, got %v", sessions.logoutCalls)
	}
}

func TestAuthHandler_Me_IncludesTenantHint(t *testing.T) {
	sessions := &sessionsStub{hint: "7"}
	h := NewAuthHandler(&stubAuthService{}, sessions)

	c, rec := newEchoContext(t, http.MethodGet, "/auth/me", "")
	c.Set(middleware.SessionKey, adminSession())

	if err := h.Me(c); err != nil {
		t.Fatalf("me handler error: %v", err)
	}
	var resp struct {
		TenantHint string `json:"tenant_hint"`
		Landing    string `json:"landing"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TenantHint != "7" {
		t.Fatalf("expected tenant hint 7, got %q", resp.TenantHint)
	}
	if resp.Landing != domain.OperationalLandingPath {
		t.Fatalf("unexpected landing %q", resp.Landing)
	}
}

func TestAuthHandler_RefreshMe_ReturnsFreshProfile(t *testing.T) {
	svc := &stubAuthService{updatedUser: &domain.User{
		ID: "u1", Name: "Ana Renamed", Email: "ana@example.com", Role: domain.RoleResponsable, GroupID: "7",
	}}
	h := NewAuthHandler(svc, &sessionsStub{})

	c, rec := newEchoContext(t, http.MethodPost, "/auth/me/refresh", "")
	c.Set(middleware.SessionKey, adminSession())

	if err := h.RefreshMe(c); err != nil {
		t.Fatalf("refresh handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.refreshCalls) != 1 || svc.refreshCalls[0] != "u1" {
		t.Fatalf("expected refresh for u1, got %v", svc.refreshCalls)
	}

	var resp struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// The response carries the store's profile, not the session's cached one.
	if resp.Name != "Ana Renamed" || resp.Role != domain.RoleResponsable {
		t.Fatalf("expected refreshed profile, got %+v", resp)
	}
}

func TestAuthHandler_Dashboard_SuperadminRedirects(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, &sessionsStub{})

	c, rec := newEchoContext(t, http.MethodGet, "/dashboard", "")
	c.SetPath("/dashboard")
	sess := adminSession()
	sess.Role = domain.RoleSuperadmin
	sess.GroupID = ""
	c.Set(middleware.SessionKey, sess)

	if err := h.Dashboard(c); err != nil {
		t.Fatalf("dashboard handler error: %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != domain.AdminLandingPath {
		t.Fatalf("expected redirect to %s, got %s", domain.AdminLandingPath, loc)
	}
}

func TestAuthHandler_Dashboard_OperationalRoleStays(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, &sessionsStub{})

	for _, role := range []string{domain.RoleAdmin, domain.RoleResponsable, domain.RoleContador, domain.RoleViewer} {
		c, rec := newEchoContext(t, http.MethodGet, "/dashboard", "")
		c.SetPath("/dashboard")
		sess := adminSession()
		sess.Role = role
		c.Set(middleware.SessionKey, sess)

		if err := h.Dashboard(c); err != nil {
			t.Fatalf("%s dashboard handler error: %v", role, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("%s should stay on the dashboard, got %d", role, rec.Code)
		}
	}
}

func TestAuthHandler_Me_WithoutSession(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, &sessionsStub{})

	c, _ := newEchoContext(t, http.MethodGet, "/auth/me", "")
	err := h.Me(c)
	if err == nil {
		t.Fatalf("expected error without session")
	}
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}
