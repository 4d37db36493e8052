package ports

import (
	"context"

	"github.com/zentria/afe-api/internal/core/domain"
)

// OAuthIdentity is the identity returned by the external provider after a
// successful authorization-code exchange.
type OAuthIdentity struct {
	Subject string
	Email   string
	Name    string
}

// OAuthClient exchanges an authorization code with the external identity
// provider.
type OAuthClient interface {
	Exchange(ctx context.Context, code string) (*OAuthIdentity, error)
}

// OAuthLatch is the processed-once guard for callback completions. Acquire
// returns true for exactly one caller per state value; late or duplicate
// completions get false and must be dropped without touching the session.
type OAuthLatch interface {
	Acquire(ctx context.Context, state string) (bool, error)
}

// LoginResult is returned after any successful credential flow.
type LoginResult struct {
	Token string
	User  *domain.User
}

// AuthService implements the credential flows of the dashboard.
type AuthService interface {
	// Login authenticates by email and password and issues a bearer token.
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// ExchangeOAuthCode completes an OAuth callback. The state parameter is
	// the idempotency key: a second completion with the same state is a
	// no-op returning domain.ErrCallbackReplayed.
	ExchangeOAuthCode(ctx context.Context, code, state string) (*LoginResult, error)
	// RefreshProfile re-reads the user's profile, e.g. after a self-edit.
	RefreshProfile(ctx context.Context, userID string) (*domain.User, error)
	// Register creates a user account (admin surface).
	Register(ctx context.Context, name, email, password, role, groupID string) (*domain.User, error)
	// UpdateSelf applies a self-edit of name and email, then re-persists the
	// session's profile fields.
	UpdateSelf(ctx context.Context, userID, name, email string) (*domain.User, error)
}
