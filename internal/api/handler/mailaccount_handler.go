package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/zentria/afe-api/internal/core/domain"
	"github.com/zentria/afe-api/internal/core/ports"
)

// ExtractionDispatcher is the interface the handler uses to enqueue poll jobs.
type ExtractionDispatcher interface {
	Enqueue(job ports.ExtractionJob)
}

// MailAccountHandler handles the extraction mailbox configuration endpoints.
type MailAccountHandler struct {
	accounts   ports.MailAccountRepository
	dispatcher ExtractionDispatcher
}

func NewMailAccountHandler(accounts ports.MailAccountRepository, dispatcher ExtractionDispatcher) *MailAccountHandler {
	return &MailAccountHandler{accounts: accounts, dispatcher: dispatcher}
}

type mailAccountRequest struct {
	Address  string `json:"address"  validate:"required,email"`
	Host     string `json:"host"     validate:"required"`
	Port     int    `json:"port"     validate:"required,gt=0"`
	Username string `json:"username" validate:"required"`
	Secret   string `json:"secret"`
	GroupID  string `json:"grupo_id"`
	Enabled  bool   `json:"enabled"`
}

type mailAccountResponse struct {
	ID           string `json:"id"`
	Address      string `json:"address"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Username     string `json:"username"`
	GroupID      string `json:"grupo_id"`
	Enabled      bool   `json:"enabled"`
	LastPolledAt string `json:"last_polled_at,omitempty"`
}

func toMailAccountResponse(acc *domain.MailAccount) mailAccountResponse {
	resp := mailAccountResponse{
		ID:       acc.ID,
		Address:  acc.Address,
		Host:     acc.Host,
		Port:     acc.Port,
		Username: acc.Username,
		GroupID:  acc.GroupID,
		Enabled:  acc.Enabled,
	}
	if !acc.LastPolledAt.IsZero() {
		resp.LastPolledAt = acc.LastPolledAt.Format(time.RFC3339)
	}
	return resp
}

// List handles GET /v1/admin/mail-accounts.
//
// @Summary      List extraction mailboxes
// @Tags         mail-accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string][]mailAccountResponse
// @Router       /v1/admin/mail-accounts [get]
func (h *MailAccountHandler) List(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	scope, err := adminScope(sess)
	if err != nil {
		return err
	}
	accounts, err := h.accounts.List(c.Request().Context(), scope)
	if err != nil {
		return err
	}

	items := make([]mailAccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		items = append(items, toMailAccountResponse(acc))
	}
	return c.JSON(http.StatusOK, map[string][]mailAccountResponse{"items": items})
}

// Create handles POST /v1/admin/mail-accounts.
//
// @Summary      Register an extraction mailbox
// @Tags         mail-accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      mailAccountRequest  true  "Mailbox settings"
// @Success      201   {object}  mailAccountResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/admin/mail-accounts [post]
func (h *MailAccountHandler) Create(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req mailAccountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if req.Secret == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "secret is required"})
	}
	if sess.Role != domain.RoleSuperadmin {
		scope, err := adminScope(sess)
		if err != nil {
			return err
		}
		req.GroupID = scope
	}

	now := time.Now().UTC()
	created, err := h.accounts.Create(c.Request().Context(), &domain.MailAccount{
		Address:   req.Address,
		Host:      req.Host,
		Port:      req.Port,
		Username:  req.Username,
		Secret:    req.Secret,
		GroupID:   req.GroupID,
		Enabled:   req.Enabled,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toMailAccountResponse(created))
}

// Update handles PUT /v1/admin/mail-accounts/:id.
//
// @Summary      Update an extraction mailbox
// @Tags         mail-accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Mailbox id"
// @Param        body  body      mailAccountRequest  true  "Mailbox settings (empty secret keeps the stored one)"
// @Success      200   {object}  mailAccountResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/admin/mail-accounts/{id} [put]
func (h *MailAccountHandler) Update(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req mailAccountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	existing, err := h.accounts.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if sess.Role != domain.RoleSuperadmin {
		scope, err := adminScope(sess)
		if err != nil {
			return err
		}
		if existing.GroupID != scope {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "access forbidden"})
		}
		req.GroupID = scope
	}

	existing.Address = req.Address
	existing.Host = req.Host
	existing.Port = req.Port
	existing.Username = req.Username
	existing.Secret = req.Secret
	existing.GroupID = req.GroupID
	existing.Enabled = req.Enabled

	updated, err := h.accounts.Update(c.Request().Context(), existing)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMailAccountResponse(updated))
}

// Delete handles DELETE /v1/admin/mail-accounts/:id.
//
// @Summary      Delete an extraction mailbox
// @Tags         mail-accounts
// @Security     BearerAuth
// @Param        id   path  string  true  "Mailbox id"
// @Success      204  "Mailbox deleted"
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/admin/mail-accounts/{id} [delete]
func (h *MailAccountHandler) Delete(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	existing, err := h.accounts.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if sess.Role != domain.RoleSuperadmin {
		scope, err := adminScope(sess)
		if err != nil {
			return err
		}
		if existing.GroupID != scope {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "access forbidden"})
		}
	}

	if err := h.accounts.Delete(c.Request().Context(), existing.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Poll handles POST /v1/admin/mail-accounts/:id/poll — enqueues an extraction
// run for the mailbox and returns 202.
//
// @Summary      Trigger an extraction run
// @Tags         mail-accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Mailbox id"
// @Success      202  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/admin/mail-accounts/{id}/poll [post]
func (h *MailAccountHandler) Poll(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	account, err := h.accounts.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if sess.Role != domain.RoleSuperadmin {
		scope, err := adminScope(sess)
		if err != nil {
			return err
		}
		if account.GroupID != scope {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "access forbidden"})
		}
	}

	job := ports.ExtractionJob{
		JobID:       uuid.NewString(),
		AccountID:   account.ID,
		RequestedBy: sess.UserID,
		RequestedAt: time.Now().UTC(),
	}
	h.dispatcher.Enqueue(job)
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "extraction enqueued",
		"job_id":  job.JobID,
	})
}
