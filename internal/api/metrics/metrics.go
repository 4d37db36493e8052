// Package metrics defines and registers all custom Prometheus metrics for the
// ZENTRIA AFE API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default Prometheus registry at package init; the
// router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "afe"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts credential flows.
// Labels:
//   - provider: "password" or "oauth"
//   - result:   "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by provider and result.",
	},
	[]string{"provider", "result"},
)

// OAuthCallbacksTotal counts OAuth callback completions.
// Label:
//   - result: "success", "failure", or "replayed" (dropped by the latch)
var OAuthCallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "oauth_callbacks_total",
		Help:      "Total number of OAuth callback completions, by result.",
	},
	[]string{"result"},
)

// GuardDecisionsTotal counts route guard evaluations.
// Label:
//   - decision: "allow", "unauthenticated", or "forbidden"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by outcome.",
	},
	[]string{"decision"},
)

// ── Invoice metrics ───────────────────────────────────────────────────────────

// InvoiceTransitionsTotal counts approval-flow transitions.
// Labels:
//   - to:     resulting status ("in_review", "approved", "rejected")
//   - result: "applied" or "denied" (capability or transition rejected)
var InvoiceTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invoice_transitions_total",
		Help:      "Total number of invoice status transitions, by target status and result.",
	},
	[]string{"to", "result"},
)

// ── Extraction metrics ────────────────────────────────────────────────────────

// ExtractionJobsTotal counts mailbox extraction runs.
// Label:
//   - result: "ok", "skipped" (account disabled), or "error"
var ExtractionJobsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extraction_jobs_total",
		Help:      "Total number of mailbox extraction jobs processed, by result.",
	},
	[]string{"result"},
)

// ExtractionQueueDepth tracks events waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ExtractionQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "extraction_queue_depth",
		Help:      "Current number of jobs pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ExtractionDuration measures one extraction run end-to-end.
var ExtractionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "extraction_duration_seconds",
		Help:      "Duration of a mailbox extraction run from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)
