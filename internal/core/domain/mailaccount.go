package domain

import (
	"errors"
	"time"
)

var ErrMailAccountNotFound = errors.New("mail account not found")
var ErrMailAccountExists = errors.New("mail account already exists")

// MailAccount configures a mailbox the extraction pipeline polls for incoming
// supplier invoices. Credentials are stored server-side only and never leave
// the service.
type MailAccount struct {
	ID       string `json:"id"`
	Address  string `json:"address"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Secret   string `json:"-"`
	GroupID  string `json:"grupo_id"`
	Enabled  bool   `json:"enabled"`
	// LastPolledAt is the completion time of the most recent extraction run.
	LastPolledAt time.Time `json:"last_polled_at,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
