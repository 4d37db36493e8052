package ports

import (
	"context"

	"github.com/zentria/afe-api/internal/core/domain"
)

// SessionStore holds the authenticated actor's identity and token, persisted
// across restarts. Exactly three logical keys are durable per session: the
// bearer token, the serialized profile, and an optional tenant/group hint.
// All three are removed together on logout.
//
// Guards must re-read the store on every request rather than cache a session:
// a SetCredentials or Logout invalidates any previously taken decision.
type SessionStore interface {
	// SetCredentials replaces the session wholesale and marks it
	// authenticated. The tenant hint is derived from the user's group id,
	// except for superadmin: a superadmin session defaults to the global
	// view and must not have a stale group hint auto-selected, so the hint
	// is actively omitted (and any previous one cleared) at write time.
	SetCredentials(ctx context.Context, user domain.User, token, provider string) error
	// Logout clears the session to unauthenticated defaults and removes all
	// three persisted keys. After Logout every capability check on the
	// session fails closed.
	Logout(ctx context.Context, userID string) error
	// UpdateUser replaces only the profile fields of an authenticated
	// session; token and authenticated flag are untouched.
	UpdateUser(ctx context.Context, user domain.User) error
	// Load returns the current session for userID, or the anonymous session
	// when none is persisted.
	Load(ctx context.Context, userID string) (domain.Session, error)
	// TenantHint returns the persisted tenant/group hint, empty when absent.
	TenantHint(ctx context.Context, userID string) (string, error)
	// SetLoading toggles the transient UI loading flag. Never persisted.
	SetLoading(userID string, loading bool)
	// Loading reads the transient loading flag.
	Loading(userID string) bool
}
