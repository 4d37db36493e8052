package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zentria/afe-api/internal/api/metrics"
	"github.com/zentria/afe-api/internal/core/domain"
	"github.com/zentria/afe-api/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type invoiceService struct {
	repo ports.InvoiceRepository
	log  zerolog.Logger
}

// NewInvoiceService returns an InvoiceService implementation.
func NewInvoiceService(repo ports.InvoiceRepository, log zerolog.Logger) ports.InvoiceService {
	return &invoiceService{repo: repo, log: log}
}

// scopeGroup returns the group filter a session is allowed to query with.
// Superadmin queries globally; every other role is pinned to its own group.
// A non-superadmin session without a group has no scope at all and is denied
// rather than silently widened to the global view.
func scopeGroup(role, groupID string) (string, error) {
	if role == domain.RoleSuperadmin {
		return "", nil
	}
	if groupID == "" {
		return "", domain.ErrForbidden
	}
	return groupID, nil
}

func (s *invoiceService) Register(ctx context.Context, in ports.RegisterInvoiceInput) (*domain.Invoice, error) {
	if !domain.HasPermission(in.Role, domain.CapCreate) {
		return nil, domain.ErrForbidden
	}
	if in.Number == "" || in.SupplierName == "" {
		return nil, fmt.Errorf("register invoice: number and supplier are required")
	}

	now := time.Now().UTC()
	inv := &domain.Invoice{
		Number:        in.Number,
		SupplierName:  in.SupplierName,
		SupplierTaxID: in.SupplierTaxID,
		GroupID:       in.GroupID,
		Amount:        in.Amount,
		Currency:      in.Currency,
		IssuedAt:      in.IssuedAt,
		Status:        domain.StatusPending,
		StatusHistory: []domain.StatusEntry{{
			Status:    domain.StatusPending,
			Timestamp: now,
			ActorID:   in.ActorID,
			Notes:     "registered manually",
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.repo.Create(ctx, inv)
}

func (s *invoiceService) Get(ctx context.Context, id, role, groupID string) (*ports.InvoiceView, error) {
	scope, err := scopeGroup(role, groupID)
	if err != nil {
		return nil, err
	}
	inv, err := s.repo.FindByID(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	return s.buildView(inv, role), nil
}

func (s *invoiceService) List(ctx context.Context, in ports.ListInvoicesInput) (*ports.ListInvoicesResult, error) {
	scope, err := scopeGroup(in.Role, in.GroupID)
	if err != nil {
		return nil, err
	}

	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	items, total, err := s.repo.List(ctx, ports.ListInvoicesFilter{
		GroupID:  scope,
		Status:   in.Status,
		Search:   in.Search,
		DateFrom: in.DateFrom,
		DateTo:   in.DateTo,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	views := make([]ports.InvoiceView, 0, len(items))
	for _, inv := range items {
		views = append(views, *s.buildView(inv, in.Role))
	}

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	return &ports.ListInvoicesResult{
		Items:      views,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func (s *invoiceService) Review(ctx context.Context, in ports.TransitionInput) (*domain.Invoice, error) {
	return s.transition(ctx, in, domain.StatusInReview, domain.CapEdit)
}

func (s *invoiceService) Approve(ctx context.Context, in ports.TransitionInput) (*domain.Invoice, error) {
	return s.transition(ctx, in, domain.StatusApproved, domain.CapApprove)
}

func (s *invoiceService) Reject(ctx context.Context, in ports.TransitionInput) (*domain.Invoice, error) {
	return s.transition(ctx, in, domain.StatusRejected, domain.CapReject)
}

// transition applies one approval-flow step: capability check, group-scoped
// load, state-machine validation, atomic status update with history entry.
func (s *invoiceService) transition(
	ctx context.Context,
	in ports.TransitionInput,
	next domain.InvoiceStatus,
	required domain.Capability,
) (*domain.Invoice, error) {
	if !domain.HasPermission(in.Role, required) {
		metrics.InvoiceTransitionsTotal.WithLabelValues(string(next), "denied").Inc()
		return nil, domain.ErrForbidden
	}

	scope, err := scopeGroup(in.Role, in.GroupID)
	if err != nil {
		metrics.InvoiceTransitionsTotal.WithLabelValues(string(next), "denied").Inc()
		return nil, err
	}

	inv, err := s.repo.FindByID(ctx, in.InvoiceID, scope)
	if err != nil {
		return nil, err
	}

	if !inv.Status.CanTransitionTo(next) {
		metrics.InvoiceTransitionsTotal.WithLabelValues(string(next), "denied").Inc()
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, inv.Status, next)
	}

	entry := domain.StatusEntry{
		Status:    next,
		Timestamp: time.Now().UTC(),
		ActorID:   in.ActorID,
		Notes:     in.Notes,
	}
	if err := s.repo.UpdateStatus(ctx, inv.ID, next, entry); err != nil {
		return nil, fmt.Errorf("transition invoice: %w", err)
	}

	inv.Status = next
	inv.StatusHistory = append(inv.StatusHistory, entry)
	inv.UpdatedAt = entry.Timestamp

	metrics.InvoiceTransitionsTotal.WithLabelValues(string(next), "applied").Inc()
	s.log.Info().
		Str("invoice_id", inv.ID).
		Str("status", string(next)).
		Str("actor_id", in.ActorID).
		Msg("invoice transition applied")

	return inv, nil
}

// buildView attaches the affordances the role may use on an invoice. Every
// mutating control carries its capability tag at construction time; the
// filter decides on the tag, never on the control's name.
func (s *invoiceService) buildView(inv *domain.Invoice, role string) *ports.InvoiceView {
	affordances := []domain.Affordance{
		domain.ViewAffordance("detail"),
		domain.ViewAffordance("history"),
		domain.ActionAffordance("review", domain.CapEdit),
		domain.ActionAffordance("approve", domain.CapApprove),
		domain.ActionAffordance("reject", domain.CapReject),
		domain.ActionAffordance("delete", domain.CapDelete),
		domain.ActionAffordance("export", domain.CapExport),
	}
	if domain.HasPermission(role, domain.CapViewPayments) {
		affordances = append(affordances, domain.ViewAffordance("payments"))
	}

	visible, constrained := domain.FilterAffordances(role, affordances)
	return &ports.InvoiceView{Invoice: inv, Affordances: visible, ReadOnly: constrained}
}
