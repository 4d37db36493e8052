package ports

import (
	"context"

	"github.com/zentria/afe-api/internal/core/domain"
)

// ListUsersFilter carries query parameters for listing users.
// GroupID is enforced by the service layer: non-superadmin admins only see
// their own group.
type ListUsersFilter struct {
	GroupID string // empty = no filter (superadmin)
	Role    string // optional: filter by role
	Search  string // optional: partial match on name or email
	Page    int    // 1-based
	Limit   int    // max rows per page (capped by service)
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// UpdateProfile replaces name, email, role, and group of an existing user.
	UpdateProfile(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
	// ListGroups returns the distinct group ids present across users.
	ListGroups(ctx context.Context) ([]string, error)
}
