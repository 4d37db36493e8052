package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/zentria/afe-api/internal/core/domain"
	"github.com/zentria/afe-api/internal/core/ports"
)

type stubUserRepo struct {
	byEmail map[string]*domain.User
	byID    map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: make(map[string]*domain.User), byID: make(map[string]*domain.User)}
}

func (r *stubUserRepo) add(u *domain.User) {
	clone := *u
	r.byEmail[u.Email] = &clone
	r.byID[u.ID] = &clone
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.byEmail[email]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.byID[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.byEmail[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	clone := *user
	if clone.ID == "" {
		clone.ID = "id-" + user.Email
	}
	r.add(&clone)
	return &clone, nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := r.byID[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	r.add(user)
	clone := *user
	return &clone, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byEmail, u.Email)
	delete(r.byID, id)
	return nil
}

func (r *stubUserRepo) List(_ context.Context, _ ports.ListUsersFilter) ([]*domain.User, int64, error) {
	return nil, 0, nil
}

func (r *stubUserRepo) ListGroups(_ context.Context) ([]string, error) {
	return nil, nil
}

// stubSessionStore records mutations so tests can assert exactly which
// session writes a flow commits.
type stubSessionStore struct {
	setCalls     int
	lastUser     domain.User
	lastToken    string
	logoutCalls  int
	updateCalls  int
	loading      map[string]bool
	loadingCalls []bool
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{loading: make(map[string]bool)}
}

func (s *stubSessionStore) SetCredentials(_ context.Context, user domain.User, token, _ string) error {
	s.setCalls++
	s.lastUser = user
	s.lastToken = token
	return nil
}

func (s *stubSessionStore) Logout(_ context.Context, _ string) error {
	s.logoutCalls++
	return nil
}

func (s *stubSessionStore) UpdateUser(_ context.Context, user domain.User) error {
	s.updateCalls++
	s.lastUser = user
	return nil
}

func (s *stubSessionStore) Load(_ context.Context, _ string) (domain.Session, error) {
	return domain.AnonymousSession(), nil
}

func (s *stubSessionStore) TenantHint(_ context.Context, _ string) (string, error) {
	return "", nil
}

func (s *stubSessionStore) SetLoading(userID string, loading bool) {
	s.loadingCalls = append(s.loadingCalls, loading)
	s.loading[userID] = loading
}

func (s *stubSessionStore) Loading(userID string) bool { return s.loading[userID] }

type stubOAuthClient struct {
	identity *ports.OAuthIdentity
	err      error
	calls    int
}

func (c *stubOAuthClient) Exchange(_ context.Context, _ string) (*ports.OAuthIdentity, error) {
	c.calls++
	return c.identity, c.err
}

type stubLatch struct {
	acquired map[string]bool
}

func newStubLatch() *stubLatch {
	return &stubLatch{acquired: make(map[string]bool)}
}

func (l *stubLatch) Acquire(_ context.Context, state string) (bool, error) {
	if l.acquired[state] {
		return false, nil
	}
	l.acquired[state] = true
	return true, nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hash)
}

func newTestAuthService(users *stubUserRepo, sessions *stubSessionStore, oauth ports.OAuthClient, latch ports.OAuthLatch) *AuthService {
	return NewAuthService(users, sessions, oauth, latch, "secret", time.Hour, zerolog.Nop())
}

func TestAuthService_Login_Success(t *testing.T) {
	users := newStubUserRepo()
	users.add(&domain.User{
		ID:           "u1",
		Name:         "Carla",
		Email:        "carla@example.com",
		PasswordHash: mustHash(t, "s3cret"),
		Role:         domain.RoleAdmin,
		GroupID:      "7",
	})
	sessions := newStubSessionStore()
	svc := newTestAuthService(users, sessions, &stubOAuthClient{}, newStubLatch())

	result, err := svc.Login(context.Background(), "carla@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Token == "" {
		t.Fatalf("expected a token")
	}
	if sessions.setCalls != 1 {
		t.Fatalf("expected one session commit, got %d", sessions.setCalls)
	}
	if sessions.lastToken != result.Token {
		t.Fatalf("session token mismatch")
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(result.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["role"] != domain.RoleAdmin {
		t.Fatalf("expected role claim %s, got %v", domain.RoleAdmin, claims["role"])
	}
	if claims["grupo_id"] != "7" {
		t.Fatalf("expected grupo_id claim 7, got %v", claims["grupo_id"])
	}
}

func TestAuthService_Login_WrongPasswordLeavesSessionUntouched(t *testing.T) {
	users := newStubUserRepo()
	users.add(&domain.User{
		ID:           "u1",
		Email:        "dave@example.com",
		PasswordHash: mustHash(t, "goodpass"),
		Role:         domain.RoleViewer,
	})
	sessions := newStubSessionStore()
	svc := newTestAuthService(users, sessions, &stubOAuthClient{}, newStubLatch())

	_, err := svc.Login(context.Background(), "dave@example.com", "badpass")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if sessions.setCalls != 0 {
		t.Fatalf("failed login must not write the session, got %d commits", sessions.setCalls)
	}
	if sessions.logoutCalls != 0 {
		t.Fatalf("failed login must not clear the session either")
	}
}

func TestAuthService_Login_UnknownUserLeavesSessionUntouched(t *testing.T) {
	sessions := newStubSessionStore()
	svc := newTestAuthService(newStubUserRepo(), sessions, &stubOAuthClient{}, newStubLatch())

	_, err := svc.Login(context.Background(), "ghost@example.com", "pass")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if sessions.setCalls != 0 || sessions.logoutCalls != 0 {
		t.Fatalf("session must stay untouched on unknown user")
	}
}

func TestAuthService_ExchangeOAuthCode_Success(t *testing.T) {
	users := newStubUserRepo()
	users.add(&domain.User{ID: "u2", Email: "eva@example.com", Role: domain.RoleResponsable, GroupID: "3"})
	sessions := newStubSessionStore()
	oauth := &stubOAuthClient{identity: &ports.OAuthIdentity{Subject: "ext-1", Email: "eva@example.com", Name: "Eva"}}
	svc := newTestAuthService(users, sessions, oauth, newStubLatch())

	result, err := svc.ExchangeOAuthCode(context.Background(), "code-1", "state-1")
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if result.User.ID != "u2" {
		t.Fatalf("unexpected user: %+v", result.User)
	}
	if sessions.setCalls != 1 {
		t.Fatalf("expected one session commit, got %d", sessions.setCalls)
	}
}

func TestAuthService_ExchangeOAuthCode_ReplayDropped(t *testing.T) {
	users := newStubUserRepo()
	users.add(&domain.User{ID: "u2", Email: "eva@example.com", Role: domain.RoleResponsable})
	sessions := newStubSessionStore()
	oauth := &stubOAuthClient{identity: &ports.OAuthIdentity{Email: "eva@example.com"}}
	svc := newTestAuthService(users, sessions, oauth, newStubLatch())

	if _, err := svc.ExchangeOAuthCode(context.Background(), "code-1", "state-dup"); err != nil {
		t.Fatalf("first completion failed: %v", err)
	}

	_, err := svc.ExchangeOAuthCode(context.Background(), "code-1", "state-dup")
	if !errors.Is(err, domain.ErrCallbackReplayed) {
		t.Fatalf("expected ErrCallbackReplayed, got %v", err)
	}
	if sessions.setCalls != 1 {
		t.Fatalf("replay must not commit a second session write, got %d", sessions.setCalls)
	}
	if oauth.calls != 1 {
		t.Fatalf("replay must not re-contact the provider, got %d calls", oauth.calls)
	}
}

func TestAuthService_ExchangeOAuthCode_DistinctStatesBothProcess(t *testing.T) {
	users := newStubUserRepo()
	users.add(&domain.User{ID: "u2", Email: "eva@example.com", Role: domain.RoleViewer})
	sessions := newStubSessionStore()
	oauth := &stubOAuthClient{identity: &ports.OAuthIdentity{Email: "eva@example.com"}}
	svc := newTestAuthService(users, sessions, oauth, newStubLatch())

	if _, err := svc.ExchangeOAuthCode(context.Background(), "c", "state-a"); err != nil {
		t.Fatalf("state-a failed: %v", err)
	}
	if _, err := svc.ExchangeOAuthCode(context.Background(), "c", "state-b"); err != nil {
		t.Fatalf("state-b failed: %v", err)
	}
	if sessions.setCalls != 2 {
		t.Fatalf("expected two commits for distinct states, got %d", sessions.setCalls)
	}
}

func TestAuthService_ExchangeOAuthCode_ProviderFailureLeavesSessionUntouched(t *testing.T) {
	sessions := newStubSessionStore()
	oauth := &stubOAuthClient{err: errors.New("provider unreachable")}
	svc := newTestAuthService(newStubUserRepo(), sessions, oauth, newStubLatch())

	if _, err := svc.ExchangeOAuthCode(context.Background(), "code", "state-x"); err == nil {
		t.Fatalf("expected provider error")
	}
	if sessions.setCalls != 0 {
		t.Fatalf("failed exchange must not write the session")
	}
}

func TestAuthService_Register_SuperadminHasNoGroup(t *testing.T) {
	users := newStubUserRepo()
	svc := newTestAuthService(users, newStubSessionStore(), &stubOAuthClient{}, newStubLatch())

	user, err := svc.Register(context.Background(), "Root", "root@example.com", "pass", domain.RoleSuperadmin, "7")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.GroupID != "" {
		t.Fatalf("superadmin must not carry a group, got %q", user.GroupID)
	}
}

func TestAuthService_Register_UnknownRole(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), newStubSessionStore(), &stubOAuthClient{}, newStubLatch())

	_, err := svc.Register(context.Background(), "X", "x@example.com", "pass", "auditor", "")
	if !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestAuthService_Register_NonSuperadminRequiresGroup(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), newStubSessionStore(), &stubOAuthClient{}, newStubLatch())

	for _, role := range []string{domain.RoleAdmin, domain.RoleResponsable, domain.RoleContador, domain.RoleViewer} {
		_, err := svc.Register(context.Background(), "X", "x@example.com", "password", role, "")
		if !errors.Is(err, domain.ErrGroupRequired) {
			t.Fatalf("%s without group: expected ErrGroupRequired, got %v", role, err)
		}
	}
}

func TestAuthService_Register_HashesPassword(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), newStubSessionStore(), &stubOAuthClient{}, newStubLatch())

	user, err := svc.Register(context.Background(), "Ana", "ana@example.com", "plain", domain.RoleViewer, "1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.PasswordHash == "plain" {
		t.Fatalf("password must be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("plain")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_RefreshProfile_RePersistsAndTogglesLoading(t *testing.T) {
	users := newStubUserRepo()
	users.add(&domain.User{ID: "u7", Name: "Fresh", Email: "fresh@example.com", Role: domain.RoleResponsable, GroupID: "3"})
	sessions := newStubSessionStore()
	svc := newTestAuthService(users, sessions, &stubOAuthClient{}, newStubLatch())

	user, err := svc.RefreshProfile(context.Background(), "u7")
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if user.Name != "Fresh" || sessions.lastUser.Name != "Fresh" {
		t.Fatalf("refreshed profile not re-persisted: %+v", sessions.lastUser)
	}
	if sessions.updateCalls != 1 {
		t.Fatalf("expected one session profile update, got %d", sessions.updateCalls)
	}
	if sessions.setCalls != 0 {
		t.Fatalf("refresh must not replace credentials")
	}
	// The loading flag is raised for the duration of the refresh and lowered
	// afterwards, even when the refresh fails.
	if len(sessions.loadingCalls) != 2 || !sessions.loadingCalls[0] || sessions.loadingCalls[1] {
		t.Fatalf("expected loading toggled on then off, got %v", sessions.loadingCalls)
	}
	if sessions.Loading("u7") {
		t.Fatalf("loading flag must be cleared after the refresh")
	}
}

func TestAuthService_RefreshProfile_UnknownUserClearsLoading(t *testing.T) {
	sessions := newStubSessionStore()
	svc := newTestAuthService(newStubUserRepo(), sessions, &stubOAuthClient{}, newStubLatch())

	_, err := svc.RefreshProfile(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if sessions.Loading("ghost") {
		t.Fatalf("loading flag must be cleared on failure")
	}
	if sessions.updateCalls != 0 {
		t.Fatalf("failed refresh must not touch the session profile")
	}
}

func TestAuthService_UpdateSelf_RePersistsProfileOnly(t *testing.T) {
	users := newStubUserRepo()
	users.add(&domain.User{ID: "u5", Name: "Old", Email: "old@example.com", Role: domain.RoleContador, GroupID: "2"})
	sessions := newStubSessionStore()
	svc := newTestAuthService(users, sessions, &stubOAuthClient{}, newStubLatch())

	updated, err := svc.UpdateSelf(context.Background(), "u5", "New", "new@example.com")
	if err != nil {
		t.Fatalf("update self failed: %v", err)
	}
	if updated.Name != "New" || updated.Email != "new@example.com" {
		t.Fatalf("unexpected profile: %+v", updated)
	}
	// Role and group are not self-editable.
	if updated.Role != domain.RoleContador || updated.GroupID != "2" {
		t.Fatalf("role or group changed: %+v", updated)
	}
	if sessions.updateCalls != 1 {
		t.Fatalf("expected one session profile update, got %d", sessions.updateCalls)
	}
	if sessions.setCalls != 0 {
		t.Fatalf("self-edit must not replace credentials")
	}
}
