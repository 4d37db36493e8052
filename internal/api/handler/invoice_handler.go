package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zentria/afe-api/internal/core/domain"
	"github.com/zentria/afe-api/internal/core/ports"
)

// InvoiceHandler handles the approval-flow endpoints.
type InvoiceHandler struct {
	service ports.InvoiceService
}

func NewInvoiceHandler(service ports.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// --- Request / Response types ---

type registerInvoiceRequest struct {
	Number        string  `json:"number"          validate:"required"`
	SupplierName  string  `json:"supplier_name"   validate:"required"`
	SupplierTaxID string  `json:"supplier_tax_id"`
	Amount        float64 `json:"amount"          validate:"gt=0"`
	Currency      string  `json:"currency"        validate:"required,oneof=COP USD EUR"`
	IssuedAt      string  `json:"issued_at"       validate:"required"`
}

type transitionRequest struct {
	Notes string `json:"notes"`
}

type statusEntryResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type invoiceResponse struct {
	ID            string                `json:"id"`
	Number        string                `json:"number"`
	SupplierName  string                `json:"supplier_name"`
	SupplierTaxID string                `json:"supplier_tax_id,omitempty"`
	GroupID       string                `json:"grupo_id"`
	Amount        float64               `json:"amount"`
	Currency      string                `json:"currency"`
	IssuedAt      string                `json:"issued_at"`
	Status        string                `json:"status"`
	StatusHistory []statusEntryResponse `json:"status_history,omitempty"`
}

type invoiceViewResponse struct {
	Invoice invoiceResponse `json:"invoice"`
	// Affordances lists the controls the active role may use on this invoice.
	Affordances []string `json:"affordances"`
	// ReadOnly is true when mutating controls were suppressed for this role;
	// the dashboard shows an informational banner in that case.
	ReadOnly bool `json:"read_only"`
}

type listInvoicesResponse struct {
	Items      []invoiceViewResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalPages int                   `json:"total_pages"`
}

func toInvoiceResponse(inv *domain.Invoice, withHistory bool) invoiceResponse {
	resp := invoiceResponse{
		ID:            inv.ID,
		Number:        inv.Number,
		SupplierName:  inv.SupplierName,
		SupplierTaxID: inv.SupplierTaxID,
		GroupID:       inv.GroupID,
		Amount:        inv.Amount,
		Currency:      inv.Currency,
		IssuedAt:      inv.IssuedAt.Format(time.RFC3339),
		Status:        string(inv.Status),
	}
	if withHistory {
		for _, e := range inv.StatusHistory {
			resp.StatusHistory = append(resp.StatusHistory, statusEntryResponse{
				Status:    string(e.Status),
				Timestamp: e.Timestamp.Format(time.RFC3339),
				ActorID:   e.ActorID,
				Notes:     e.Notes,
			})
		}
	}
	return resp
}

func toViewResponse(view ports.InvoiceView, withHistory bool) invoiceViewResponse {
	names := make([]string, 0, len(view.Affordances))
	for _, a := range view.Affordances {
		names = append(names, a.Name)
	}
	return invoiceViewResponse{
		Invoice:     toInvoiceResponse(view.Invoice, withHistory),
		Affordances: names,
		ReadOnly:    view.ReadOnly,
	}
}

// List handles GET /v1/invoices.
//
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        search  query     string  false  "Partial match on number or supplier"
// @Param        from    query     string  false  "Issued-at lower bound (RFC3339)"
// @Param        to      query     string  false  "Issued-at upper bound (RFC3339)"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Rows per page"
// @Success      200     {object}  listInvoicesResponse
// @Router       /v1/invoices [get]
func (h *InvoiceHandler) List(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	input := ports.ListInvoicesInput{
		Role:    sess.Role,
		GroupID: sess.GroupID,
		Status:  c.QueryParam("status"),
		Search:  c.QueryParam("search"),
	}
	if v := c.QueryParam("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			input.DateFrom = t
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			input.DateTo = t
		}
	}
	if input.Page, err = queryInt(c, "page"); err != nil {
		return err
	}
	if input.Limit, err = queryInt(c, "limit"); err != nil {
		return err
	}

	result, err := h.service.List(c.Request().Context(), input)
	if err != nil {
		return err
	}

	items := make([]invoiceViewResponse, 0, len(result.Items))
	for _, view := range result.Items {
		items = append(items, toViewResponse(view, false))
	}
	return c.JSON(http.StatusOK, listInvoicesResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages,
	})
}

// Get handles GET /v1/invoices/:id.
//
// @Summary      Get an invoice with its approval history
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Invoice id"
// @Success      200  {object}  invoiceViewResponse
// @Failure      404  {object}  map[string]string
// @Router       /v1/invoices/{id} [get]
func (h *InvoiceHandler) Get(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	view, err := h.service.Get(c.Request().Context(), c.Param("id"), sess.Role, sess.GroupID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toViewResponse(*view, true))
}

// Register handles POST /v1/invoices — manual invoice registration.
//
// @Summary      Register an invoice manually
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerInvoiceRequest  true  "Invoice details"
// @Success      201   {object}  invoiceResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/invoices [post]
func (h *InvoiceHandler) Register(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req registerInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	issuedAt, err := time.Parse(time.RFC3339, req.IssuedAt)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "issued_at must be RFC3339")
	}

	inv, err := h.service.Register(c.Request().Context(), ports.RegisterInvoiceInput{
		Number:        req.Number,
		SupplierName:  req.SupplierName,
		SupplierTaxID: req.SupplierTaxID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		IssuedAt:      issuedAt,
		Role:          sess.Role,
		GroupID:       sess.GroupID,
		ActorID:       sess.UserID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toInvoiceResponse(inv, true))
}

// Review handles POST /v1/invoices/:id/review.
//
// @Summary      Move an invoice into review
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true   "Invoice id"
// @Param        body  body      transitionRequest  false  "Optional notes"
// @Success      200   {object}  invoiceResponse
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/invoices/{id}/review [post]
func (h *InvoiceHandler) Review(c echo.Context) error {
	return h.transition(c, h.service.Review)
}

// Approve handles POST /v1/invoices/:id/approve.
//
// @Summary      Approve an in-review invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true   "Invoice id"
// @Param        body  body      transitionRequest  false  "Optional notes"
// @Success      200   {object}  invoiceResponse
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/invoices/{id}/approve [post]
func (h *InvoiceHandler) Approve(c echo.Context) error {
	return h.transition(c, h.service.Approve)
}

// Reject handles POST /v1/invoices/:id/reject.
//
// @Summary      Reject an in-review invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true   "Invoice id"
// @Param        body  body      transitionRequest  false  "Optional notes"
// @Success      200   {object}  invoiceResponse
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/invoices/{id}/reject [post]
func (h *InvoiceHandler) Reject(c echo.Context) error {
	return h.transition(c, h.service.Reject)
}

func (h *InvoiceHandler) transition(
	c echo.Context,
	apply func(ctx context.Context, in ports.TransitionInput) (*domain.Invoice, error),
) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req transitionRequest
	// Notes body is optional; ignore bind errors on an empty body.
	_ = c.Bind(&req)

	inv, err := apply(c.Request().Context(), ports.TransitionInput{
		InvoiceID: c.Param("id"),
		Role:      sess.Role,
		GroupID:   sess.GroupID,
		ActorID:   sess.UserID,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toInvoiceResponse(inv, true))
}

// queryInt parses an optional non-negative integer query parameter. Absent
// means zero (the caller applies its default); malformed is a client error.
func queryInt(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a non-negative integer")
	}
	return n, nil
}
