package ports

import (
	"context"

	"github.com/zentria/afe-api/internal/core/domain"
)

// MailAccountRepository defines persistence operations for extraction
// mailboxes.
type MailAccountRepository interface {
	Create(ctx context.Context, acc *domain.MailAccount) (*domain.MailAccount, error)
	FindByID(ctx context.Context, id string) (*domain.MailAccount, error)
	// List returns mailboxes, scoped to groupID when non-empty.
	List(ctx context.Context, groupID string) ([]*domain.MailAccount, error)
	Update(ctx context.Context, acc *domain.MailAccount) (*domain.MailAccount, error)
	Delete(ctx context.Context, id string) error
	// MarkPolled records the completion time of an extraction run.
	MarkPolled(ctx context.Context, id string) error
}
