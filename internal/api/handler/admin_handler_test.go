package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/zentria/afe-api/internal/api/middleware"
	"github.com/zentria/afe-api/internal/core/domain"
	"github.com/zentria/afe-api/internal/core/ports"
)

type stubUserStore struct {
	byID       map[string]*domain.User
	lastFilter ports.ListUsersFilter
	listCalls  int
	updated    *domain.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{byID: make(map[string]*domain.User)}
}

func (r *stubUserStore) FindByEmail(_ context.Context, _ string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (r *stubUserStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.byID[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserStore) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	clone := *user
	return &clone, nil
}

func (r *stubUserStore) UpdateProfile(_ context.Context, user *domain.User) (*domain.User, error) {
	clone := *user
	r.updated = &clone
	return &clone, nil
}

func (r *stubUserStore) Delete(_ context.Context, _ string) error { return nil }

func (r *stubUserStore) List(_ context.Context, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	r.listCalls++
	r.lastFilter = filter
	return nil, 0, nil
}

func (r *stubUserStore) ListGroups(_ context.Context) ([]string, error) { return nil, nil }

func TestAdminHandler_ListUsers_AdminScopedToOwnGroup(t *testing.T) {
	users := newStubUserStore()
	h := NewAdminHandler(users, &stubAuthService{})

	c, rec := newEchoContext(t, http.MethodGet, "/v1/admin/users", "")
	c.Set(middleware.SessionKey, adminSession())

	if err := h.ListUsers(c); err != nil {
		t.Fatalf("list users error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if users.lastFilter.GroupID != "7" {
		t.Fatalf("admin must be pinned to its group, got filter %q", users.lastFilter.GroupID)
	}
}

func TestAdminHandler_ListUsers_GrouplessAdminForbidden(t *testing.T) {
	users := newStubUserStore()
	h := NewAdminHandler(users, &stubAuthService{})

	c, _ := newEchoContext(t, http.MethodGet, "/v1/admin/users", "")
	sess := adminSession()
	sess.GroupID = ""
	c.Set(middleware.SessionKey, sess)

	err := h.ListUsers(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("group-less admin must get 403, got %v", err)
	}
	// The empty scope must never reach the repository as a global filter.
	if users.listCalls != 0 {
		t.Fatalf("denied list must not query the repository, got %d calls", users.listCalls)
	}
}

func TestAdminHandler_ListUsers_SuperadminQueriesGlobally(t *testing.T) {
	users := newStubUserStore()
	h := NewAdminHandler(users, &stubAuthService{})

	c, _ := newEchoContext(t, http.MethodGet, "/v1/admin/users", "")
	sess := adminSession()
	sess.Role = domain.RoleSuperadmin
	sess.GroupID = ""
	c.Set(middleware.SessionKey, sess)

	if err := h.ListUsers(c); err != nil {
		t.Fatalf("list users error: %v", err)
	}
	if users.lastFilter.GroupID != "" {
		t.Fatalf("superadmin queries without a group filter, got %q", users.lastFilter.GroupID)
	}
}

func TestAdminHandler_UpdateUser_DemotedSuperadminNeedsGroup(t *testing.T) {
	users := newStubUserStore()
	users.byID["u9"] = &domain.User{ID: "u9", Name: "Root", Role: domain.RoleSuperadmin}
	h := NewAdminHandler(users, &stubAuthService{})

	c, _ := newEchoContext(t, http.MethodPut, "/v1/admin/users/u9", `{"role":"admin"}`)
	c.SetParamNames("id")
	c.SetParamValues("u9")
	sess := adminSession()
	sess.Role = domain.RoleSuperadmin
	sess.GroupID = ""
	c.Set(middleware.SessionKey, sess)

	err := h.UpdateUser(c)
	if !errors.Is(err, domain.ErrGroupRequired) {
		t.Fatalf("demotion without a group must fail, got %v", err)
	}
	if users.updated != nil {
		t.Fatalf("rejected update must not persist, got %+v", users.updated)
	}
}
