package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/zentria/afe-api/internal/api/metrics"
	"github.com/zentria/afe-api/internal/core/domain"
	"github.com/zentria/afe-api/internal/core/ports"
)

// AuthService implements login, OAuth exchange, and profile refresh.
type AuthService struct {
	users     ports.UserRepository
	sessions  ports.SessionStore
	oauth     ports.OAuthClient
	latch     ports.OAuthLatch
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	sessions ports.SessionStore,
	oauth ports.OAuthClient,
	latch ports.OAuthLatch,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		oauth:     oauth,
		latch:     latch,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

// Login authenticates by email and password. The session store is only
// touched after every fallible step has succeeded, so a failed login leaves
// any existing session in its prior state.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.LoginsTotal.WithLabelValues("password", "failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.SetCredentials(ctx, *user, token, "password"); err != nil {
		return nil, fmt.Errorf("login: persist session: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("password", "success").Inc()
	s.log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("login")
	return &ports.LoginResult{Token: token, User: user}, nil
}

// ExchangeOAuthCode completes an OAuth callback. The state parameter is the
// idempotency key: the latch admits exactly one completion per state, so a
// double-submitted callback commits at most one SetCredentials.
func (s *AuthService) ExchangeOAuthCode(ctx context.Context, code, state string) (*ports.LoginResult, error) {
	if code == "" || state == "" {
		return nil, domain.ErrInvalidCredentials
	}

	ok, err := s.latch.Acquire(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange: latch: %w", err)
	}
	if !ok {
		metrics.OAuthCallbacksTotal.WithLabelValues("replayed").Inc()
		s.log.Debug().Str("state", state).Msg("duplicate oauth callback dropped")
		return nil, domain.ErrCallbackReplayed
	}

	identity, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		metrics.OAuthCallbacksTotal.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("oauth exchange: %w", err)
	}

	user, err := s.users.FindByEmail(ctx, identity.Email)
	if err != nil {
		metrics.OAuthCallbacksTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.SetCredentials(ctx, *user, token, "oauth"); err != nil {
		return nil, fmt.Errorf("oauth exchange: persist session: %w", err)
	}

	metrics.OAuthCallbacksTotal.WithLabelValues("success").Inc()
	metrics.LoginsTotal.WithLabelValues("oauth", "success").Inc()
	s.log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("oauth login")
	return &ports.LoginResult{Token: token, User: user}, nil
}

// RefreshProfile re-reads the profile from the user store and re-persists the
// session's profile fields. Token and authenticated flag are untouched. The
// transient loading flag is raised for the duration of the refresh so the
// profile endpoint can report an in-flight reload.
func (s *AuthService) RefreshProfile(ctx context.Context, userID string) (*domain.User, error) {
	s.sessions.SetLoading(userID, true)
	defer s.sessions.SetLoading(userID, false)

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateUser(ctx, *user); err != nil {
		return nil, fmt.Errorf("refresh profile: persist session: %w", err)
	}
	return user, nil
}

// Register creates a user account. Superadmins are global actors and never
// carry a group assignment; every other role must be pinned to a group, since
// a group-less session would otherwise have no scope to resolve against.
func (s *AuthService) Register(ctx context.Context, name, email, password, role, groupID string) (*domain.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if !domain.IsKnownRole(role) {
		return nil, domain.ErrInvalidRole
	}
	if role == domain.RoleSuperadmin {
		groupID = ""
	} else if groupID == "" {
		return nil, domain.ErrGroupRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		GroupID:      groupID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return s.users.Create(ctx, user)
}

// UpdateSelf applies a self-edit of name and email. Role and group are not
// self-editable; they stay whatever the stored profile says. The session's
// profile fields are re-persisted afterwards, token untouched.
func (s *AuthService) UpdateSelf(ctx context.Context, userID, name, email string) (*domain.User, error) {
	current, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if name != "" {
		current.Name = name
	}
	if email != "" {
		current.Email = email
	}

	updated, err := s.users.UpdateProfile(ctx, current)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateUser(ctx, *updated); err != nil {
		return nil, fmt.Errorf("update self: persist session: %w", err)
	}
	return updated, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"name":     user.Name,
		"email":    user.Email,
		"role":     user.Role,
		"grupo_id": user.GroupID,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
