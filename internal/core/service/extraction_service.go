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

// ExtractedInvoice is one invoice pulled out of a mailbox by the extractor.
type ExtractedInvoice struct {
	Number        string
	SupplierName  string
	SupplierTaxID string
	Amount        float64
	Currency      string
	IssuedAt      time.Time
}

// MailFetcher abstracts the extractor backend that reads a mailbox and
// returns the invoices found in it.
type MailFetcher interface {
	Fetch(ctx context.Context, account *domain.MailAccount) ([]ExtractedInvoice, error)
}

type extractionService struct {
	accounts ports.MailAccountRepository
	invoices ports.InvoiceRepository
	fetcher  MailFetcher
	log      zerolog.Logger
}

// NewExtractionService returns an ExtractionService implementation.
func NewExtractionService(
	accounts ports.MailAccountRepository,
	invoices ports.InvoiceRepository,
	fetcher MailFetcher,
	log zerolog.Logger,
) ports.ExtractionService {
	return &extractionService{accounts: accounts, invoices: invoices, fetcher: fetcher, log: log}
}

// Process runs one extraction job: fetch the mailbox's new invoices and
// register them as pending. Invoices already registered (same number) are
// skipped, so re-polling a mailbox is harmless.
func (s *extractionService) Process(ctx context.Context, job ports.ExtractionJob) error {
	started := time.Now()

	account, err := s.accounts.FindByID(ctx, job.AccountID)
	if err != nil {
		metrics.ExtractionJobsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("extraction: %w", err)
	}

	if !account.Enabled {
		metrics.ExtractionJobsTotal.WithLabelValues("skipped").Inc()
		s.log.Debug().Str("account_id", account.ID).Msg("extraction skipped, account disabled")
		return nil
	}

	extracted, err := s.fetcher.Fetch(ctx, account)
	if err != nil {
		metrics.ExtractionJobsTotal.WithLabelValues("error").Inc()
		metrics.ExtractionDuration.WithLabelValues("error").Observe(time.Since(started).Seconds())
		return fmt.Errorf("extraction: fetch %s: %w", account.Address, err)
	}

	created, skipped := 0, 0
	for _, item := range extracted {
		now := time.Now().UTC()
		inv := &domain.Invoice{
			Number:        item.Number,
			SupplierName:  item.SupplierName,
			SupplierTaxID: item.SupplierTaxID,
			GroupID:       account.GroupID,
			Amount:        item.Amount,
			Currency:      item.Currency,
			IssuedAt:      item.IssuedAt,
			Status:        domain.StatusPending,
			StatusHistory: []domain.StatusEntry{{
				Status:    domain.StatusPending,
				Timestamp: now,
				Notes:     "extracted from " + account.Address,
			}},
			MailAccountID: account.ID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if _, err := s.invoices.Create(ctx, inv); err != nil {
			if err == domain.ErrDuplicateInvoice {
				skipped++
				continue
			}
			metrics.ExtractionJobsTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("extraction: register %s: %w", item.Number, err)
		}
		created++
	}

	if err := s.accounts.MarkPolled(ctx, account.ID); err != nil {
		s.log.Warn().Err(err).Str("account_id", account.ID).Msg("failed to record poll time")
	}

	metrics.ExtractionJobsTotal.WithLabelValues("ok").Inc()
	metrics.ExtractionDuration.WithLabelValues("ok").Observe(time.Since(started).Seconds())
	s.log.Info().
		Str("account_id", account.ID).
		Str("job_id", job.JobID).
		Int("created", created).
		Int("skipped", skipped).
		Msg("extraction run complete")

	return nil
}
