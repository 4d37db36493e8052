// Package extractor is the HTTP client for the invoice-extraction service,
// which reads a configured mailbox and returns the invoices found in it.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zentria/afe-api/internal/core/domain"
	"github.com/zentria/afe-api/internal/core/service"
)

const defaultTimeout = 30 * time.Second

// Config captures the extractor endpoint settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls the extractor's poll endpoint for one mailbox.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds an extractor client. A default timeout is applied when
// none is provided.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: timeout}}
}

type pollRequest struct {
	Address  string `json:"address"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Secret   string `json:"secret"`
}

type extractedInvoice struct {
	Number        string    `json:"number"`
	SupplierName  string    `json:"supplier_name"`
	SupplierTaxID string    `json:"supplier_tax_id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	IssuedAt      time.Time `json:"issued_at"`
}

type pollResponse struct {
	Invoices []extractedInvoice `json:"invoices"`
	Error    string             `json:"error,omitempty"`
}

// Fetch asks the extractor to poll the account's mailbox and returns the
// invoices it found.
func (c *Client) Fetch(ctx context.Context, account *domain.MailAccount) ([]service.ExtractedInvoice, error) {
	payload, err := json.Marshal(pollRequest{
		Address:  account.Address,
		Host:     account.Host,
		Port:     account.Port,
		Username: account.Username,
		Secret:   account.Secret,
	})
	if err != nil {
		return nil, fmt.Errorf("extractor: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/poll", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("extractor: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extractor: poll: %w", err)
	}
	defer resp.Body.Close()

	var pr pollResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("extractor: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if pr.Error != "" {
			return nil, fmt.Errorf("extractor: %s", pr.Error)
		}
		return nil, fmt.Errorf("extractor: returned %d", resp.StatusCode)
	}

	invoices := make([]service.ExtractedInvoice, 0, len(pr.Invoices))
	for _, e := range pr.Invoices {
		invoices = append(invoices, service.ExtractedInvoice{
			Number:        e.Number,
			SupplierName:  e.SupplierName,
			SupplierTaxID: e.SupplierTaxID,
			Amount:        e.Amount,
			Currency:      e.Currency,
			IssuedAt:      e.IssuedAt,
		})
	}
	return invoices, nil
}
