package ports

import (
	"context"
	"time"
)

// ExtractionJob asks the pipeline to poll one mailbox for new invoices.
// Jobs for the same account must execute in order.
type ExtractionJob struct {
	JobID       string
	AccountID   string
	RequestedBy string
	RequestedAt time.Time
}

// ExtractionService processes extraction jobs.
type ExtractionService interface {
	Process(ctx context.Context, job ExtractionJob) error
}
