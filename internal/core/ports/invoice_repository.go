package ports

import (
	"context"
	"time"

	"github.com/zentria/afe-api/internal/core/domain"
)

// ListInvoicesFilter carries query parameters for listing invoices.
type ListInvoicesFilter struct {
	GroupID  string // empty = no filter (superadmin); non-empty = scoped
	Status   string
	Search   string // partial match on number or supplier_name
	DateFrom time.Time
	DateTo   time.Time
	Page     int
	Limit    int
}

// InvoiceRepository defines persistence operations for invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error)
	// FindByID retrieves an invoice. When groupID is non-empty the query is
	// additionally filtered by grupo_id (group scoping).
	FindByID(ctx context.Context, id string, groupID string) (*domain.Invoice, error)
	List(ctx context.Context, filter ListInvoicesFilter) ([]*domain.Invoice, int64, error)
	// UpdateStatus atomically sets the invoice's new status and appends a
	// history entry.
	UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus, entry domain.StatusEntry) error
}
