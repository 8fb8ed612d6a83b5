// Package metrics defines and registers all custom Prometheus metrics for the
// cross-border tracker. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package init
// through promauto; importing the package is enough.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crossborder"

// ── State machine ────────────────────────────────────────────────────────────

// TransitionsTotal counts committed transitions.
// Labels:
//   - leg: the leg after the transition (e.g. "COUNTER")
//   - status: the status after the transition (e.g. "ARRIVED_AT_WAREHOUSE")
//   - source: COURIER, OPERATOR, SIMULATION or SYSTEM
var TransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "Total number of committed shipment transitions.",
	},
	[]string{"leg", "status", "source"},
)

// TransitionRejectionsTotal counts advance calls that did not commit.
// Label:
//   - code: the stable error code (e.g. "VERSION_CONFLICT", "INVALID_TRANSITION")
var TransitionRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transition_rejections_total",
		Help:      "Total number of rejected transition attempts, by error code.",
	},
	[]string{"code"},
)

// SideEffectFailuresTotal counts swallowed side-effect failures.
// Label:
//   - effect: "warehouse_handoff", "delivery_alert" or "completion"
var SideEffectFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "side_effect_failures_total",
		Help:      "Total number of post-commit side effects that failed and were logged.",
	},
	[]string{"effect"},
)

// ── Jobs ──────────────────────────────────────────────────────────────────────

// JobRunsTotal counts background job invocations.
// Labels:
//   - job: "domestic_sync", "international_simulation" or "stuck_detection"
//   - result: "completed", "lock_busy" or "failed"
var JobRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_runs_total",
		Help:      "Total number of background job runs, by outcome.",
	},
	[]string{"job", "result"},
)

// JobItemsTotal counts per-shipment outcomes inside job runs.
// Labels:
//   - job: as above
//   - outcome: "updated", "advanced", "skipped", "flagged" or "error"
var JobItemsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_items_total",
		Help:      "Total number of shipments handled by background jobs, by outcome.",
	},
	[]string{"job", "outcome"},
)

// JobDuration measures a whole job run.
var JobDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Duration of background job runs.",
		Buckets:   []float64{.05, .1, .5, 1, 5, 15, 30, 60, 120, 300},
	},
	[]string{"job"},
)

// ── Courier API ───────────────────────────────────────────────────────────────

// CourierRequestsTotal counts individual HTTP attempts against the courier.
// Labels:
//   - api_type: "nimbus_auth", "nimbus_create" or "nimbus_track"
//   - status: HTTP status code, or "error" when no response was received
var CourierRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "courier_requests_total",
		Help:      "Total number of courier API attempts, by type and HTTP status.",
	},
	[]string{"api_type", "status"},
)

// CourierRequestDuration measures a single courier HTTP attempt.
var CourierRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "courier_request_duration_seconds",
		Help:      "Duration of a single courier API attempt.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"api_type"},
)

// ── Bookings ──────────────────────────────────────────────────────────────────

// BookingsTotal counts booking requests.
// Label:
//   - result: "created", "replayed", "invalid" or "courier_failed"
var BookingsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_total",
		Help:      "Total number of booking requests, by result.",
	},
	[]string{"result"},
)
