package ports

import (
	"context"
	"time"

	"github.com/zentria/afe-api/internal/core/domain"
)

// ListInvoicesInput carries all parameters for the invoice list endpoint.
// Role and GroupID come from the session and drive scoping: non-superadmin
// sessions only see their own group's invoices.
type ListInvoicesInput struct {
	Role     string
	GroupID  string
	Status   string
	Search   string
	DateFrom time.Time
	DateTo   time.Time
	Page     int
	Limit    int
}

// InvoiceView is an invoice plus the affordances the active role may use on
// it. ReadOnly is true when at least one mutating affordance was suppressed.
type InvoiceView struct {
	Invoice     *domain.Invoice
	Affordances []domain.Affordance
	ReadOnly    bool
}

// ListInvoicesResult is one page of invoices.
type ListInvoicesResult struct {
	Items      []InvoiceView
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// TransitionInput identifies an invoice status change requested by a session.
type TransitionInput struct {
	InvoiceID string
	Role      string
	GroupID   string
	ActorID   string
	Notes     string
}

// RegisterInvoiceInput carries the fields of a manually registered invoice.
type RegisterInvoiceInput struct {
	Number        string
	SupplierName  string
	SupplierTaxID string
	Amount        float64
	Currency      string
	IssuedAt      time.Time
	Role          string
	GroupID       string
	ActorID       string
}

// InvoiceService defines the approval-flow use cases.
type InvoiceService interface {
	Register(ctx context.Context, input RegisterInvoiceInput) (*domain.Invoice, error)
	Get(ctx context.Context, id, role, groupID string) (*InvoiceView, error)
	List(ctx context.Context, input ListInvoicesInput) (*ListInvoicesResult, error)
	// Review moves a pending or rejected invoice into review (requires canEdit).
	Review(ctx context.Context, input TransitionInput) (*domain.Invoice, error)
	// Approve finalises an in-review invoice (requires canApprove).
	Approve(ctx context.Context, input TransitionInput) (*domain.Invoice, error)
	// Reject sends an in-review invoice back to the supplier (requires canReject).
	Reject(ctx context.Context, input TransitionInput) (*domain.Invoice, error)
}
