package domain

import (
	"errors"
	"time"
)

// InvoiceStatus represents the lifecycle state of an invoice in the approval
// flow.
type InvoiceStatus string

const (
	StatusPending  InvoiceStatus = "pending"
	StatusInReview InvoiceStatus = "in_review"
	StatusApproved InvoiceStatus = "approved"
	StatusRejected InvoiceStatus = "rejected"
)

// validTransitions defines the allowed approval-flow transitions. A rejected
// invoice can re-enter review after the supplier resubmits.
var validTransitions = map[InvoiceStatus][]InvoiceStatus{
	StatusPending:  {StatusInReview},
	StatusInReview: {StatusApproved, StatusRejected},
	StatusRejected: {StatusInReview},
}

var ErrInvalidTransition = errors.New("invalid status transition")
var ErrInvoiceNotFound = errors.New("invoice not found")
var ErrDuplicateInvoice = errors.New("invoice already exists")

// CanTransitionTo reports whether a transition from the current status to
// next is valid. Approved is terminal.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StatusEntry is one step of an invoice's approval history.
type StatusEntry struct {
	Status    InvoiceStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	ActorID   string        `json:"actor_id"`
	Notes     string        `json:"notes,omitempty"`
}

// Invoice is a supplier invoice flowing through the approval pipeline.
// GroupID scopes visibility: every query from a non-superadmin session is
// filtered by it.
type Invoice struct {
	ID            string        `json:"id"`
	Number        string        `json:"number"`
	SupplierName  string        `json:"supplier_name"`
	SupplierTaxID string        `json:"supplier_tax_id"`
	GroupID       string        `json:"grupo_id"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	IssuedAt      time.Time     `json:"issued_at"`
	Status        InvoiceStatus `json:"status"`
	StatusHistory []StatusEntry `json:"status_history,omitempty"`
	// MailAccountID links the invoice to the mailbox it was extracted from,
	// empty for manually registered invoices.
	MailAccountID string    `json:"mail_account_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
