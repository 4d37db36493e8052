// Package oauth implements the authorization-code exchange against the
// external identity provider used by the dashboard's single-sign-on flow.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zentria/afe-api/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// Config captures the provider settings for the code exchange.
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Timeout      time.Duration
}

// Client exchanges authorization codes for identities over HTTP.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a provider client. A default timeout is applied when none
// is provided.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: timeout}}
}

type tokenResponse struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Error   string `json:"error,omitempty"`
}

// Exchange posts the authorization code to the provider's token endpoint and
// returns the authenticated identity.
func (c *Client) Exchange(ctx context.Context, code string) (*ports.OAuthIdentity, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"redirect_uri":  {c.cfg.RedirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("oauth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange: %w", err)
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("oauth exchange: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if tr.Error != "" {
			return nil, fmt.Errorf("oauth exchange: provider error: %s", tr.Error)
		}
		return nil, fmt.Errorf("oauth exchange: provider returned %d", resp.StatusCode)
	}
	if tr.Email == "" {
		return nil, fmt.Errorf("oauth exchange: provider response missing email")
	}

	return &ports.OAuthIdentity{Subject: tr.Subject, Email: tr.Email, Name: tr.Name}, nil
}
