package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zentria/afe-api/internal/core/domain"
)

// ErrNoSession is returned when a profile update targets a user with no
// active session.
var ErrNoSession = errors.New("no active session")

const defaultSessionTTL = 24 * time.Hour

// SessionStore persists sessions in Redis. Exactly three keys exist per user:
//
//	session:<uid>:token   — bearer token
//	session:<uid>:profile — serialized profile
//	session:<uid>:tenant  — tenant/group hint (withheld for superadmin)
//
// All writes go through a transactional pipeline under an in-process lock, so
// no reader observes a token without its profile or vice versa.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration

	mu      sync.Mutex
	loading map[string]bool
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{client: client, ttl: ttl, loading: make(map[string]bool)}
}

type storedProfile struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	GroupID string `json:"grupo_id,omitempty"`
}

// SetCredentials replaces the session wholesale. The tenant hint is derived
// from the user's group id; for superadmin it is withheld and any previous
// hint deleted, so a global session never starts with a stale group selected.
func (s *SessionStore) SetCredentials(ctx context.Context, user domain.User, token, provider string) error {
	if user.ID == "" || token == "" {
		return fmt.Errorf("session: set credentials: user id and token required")
	}

	profile, err := json.Marshal(storedProfile{
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Role:    user.Role,
		GroupID: user.GroupID,
	})
	if err != nil {
		return fmt.Errorf("session: marshal profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.tokenKey(user.ID), token, s.ttl)
	pipe.Set(ctx, s.profileKey(user.ID), profile, s.ttl)
	if user.Role != domain.RoleSuperadmin && user.GroupID != "" {
		pipe.Set(ctx, s.tenantKey(user.ID), user.GroupID, s.ttl)
	} else {
		pipe.Del(ctx, s.tenantKey(user.ID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: persist credentials: %w", err)
	}
	return nil
}

// Logout removes all three persisted keys together and drops the transient
// loading flag. Afterwards Load returns the anonymous session, whose empty
// role fails every capability check.
func (s *SessionStore) Logout(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.tokenKey(userID))
	pipe.Del(ctx, s.profileKey(userID))
	pipe.Del(ctx, s.tenantKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: logout: %w", err)
	}
	delete(s.loading, userID)
	return nil
}

// UpdateUser re-persists the profile fields of an already-authenticated
// session. Token, authenticated state, and tenant hint are untouched.
func (s *SessionStore) UpdateUser(ctx context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.client.Exists(ctx, s.tokenKey(user.ID)).Result()
	if err != nil {
		return fmt.Errorf("session: update user: %w", err)
	}
	if n == 0 {
		return ErrNoSession
	}

	profile, err := json.Marshal(storedProfile{
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Role:    user.Role,
		GroupID: user.GroupID,
	})
	if err != nil {
		return fmt.Errorf("session: marshal profile: %w", err)
	}
	if err := s.client.Set(ctx, s.profileKey(user.ID), profile, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: update user: %w", err)
	}
	return nil
}

// Load returns the persisted session for userID, or the anonymous session
// when nothing (or only a partial write, which the pipeline prevents) exists.
func (s *SessionStore) Load(ctx context.Context, userID string) (domain.Session, error) {
	vals, err := s.client.MGet(ctx, s.tokenKey(userID), s.profileKey(userID)).Result()
	if err != nil {
		return domain.AnonymousSession(), fmt.Errorf("session: load: %w", err)
	}

	token, _ := vals[0].(string)
	raw, _ := vals[1].(string)
	if token == "" || raw == "" {
		return domain.AnonymousSession(), nil
	}

	var profile storedProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		// A corrupt profile is treated as unauthenticated rather than fatal.
		return domain.AnonymousSession(), nil
	}

	return domain.Session{
		UserID:        profile.UserID,
		Name:          profile.Name,
		Email:         profile.Email,
		Role:          profile.Role,
		GroupID:       profile.GroupID,
		Token:         token,
		Authenticated: true,
	}, nil
}

// TenantHint returns the persisted tenant/group hint, empty when absent.
func (s *SessionStore) TenantHint(ctx context.Context, userID string) (string, error) {
	hint, err := s.client.Get(ctx, s.tenantKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("session: tenant hint: %w", err)
	}
	return hint, nil
}

// SetLoading toggles the transient UI loading flag. In-memory only.
func (s *SessionStore) SetLoading(userID string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loading {
		s.loading[userID] = true
		return
	}
	delete(s.loading, userID)
}

// Loading reads the transient loading flag.
func (s *SessionStore) Loading(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading[userID]
}

func (s *SessionStore) tokenKey(userID string) string {
	return "session:" + userID + ":token"
}

func (s *SessionStore) profileKey(userID string) string {
	return "session:" + userID + ":profile"
}

func (s *SessionStore) tenantKey(userID string) string {
	return "session:" + userID + ":tenant"
}
