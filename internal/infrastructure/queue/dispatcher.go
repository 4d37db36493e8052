package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/zentria/afe-api/internal/api/metrics"
	"github.com/zentria/afe-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// Dispatcher routes extraction jobs to a fixed set of workers using
// consistent hashing on the mail account id, guaranteeing per-mailbox job
// ordering: two polls of the same account never run concurrently or out of
// order.
type Dispatcher struct {
	workers []chan ports.ExtractionJob
	service ports.ExtractionService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.ExtractionService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.ExtractionJob, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ExtractionJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a job to the worker responsible for its mail account.
// The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(job ports.ExtractionJob) {
	idx := d.shardIndex(job.AccountID)
	d.workers[idx] <- job
	metrics.ExtractionQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps an account id deterministically to a worker index.
func (d *Dispatcher) shardIndex(accountID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(accountID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ExtractionJob) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			metrics.ExtractionQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			if err := d.service.Process(ctx, job); err != nil {
				d.log.Error().Err(err).
					Str("account_id", job.AccountID).
					Str("job_id", job.JobID).
					Int("worker_id", id).
					Msg("extraction job failed")
			}
		}
	}
}
