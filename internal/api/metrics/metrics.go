// Package metrics defines all custom Prometheus metrics for the
// marketplace API. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Unlock metrics ────────────────────────────────────────────────────────────

// UnlocksTotal counts unlock operations that returned a ledger row.
// Label:
//   - result: "charged" (new row) or "replayed" (idempotent repeat)
var UnlocksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unlocks_total",
		Help:      "Total number of successful contact unlocks, by result.",
	},
	[]string{"result"},
)

// UnlockErrorsTotal counts unlock operations rejected before the ledger write.
// Label:
//   - reason: "listing_not_found", "listing_expired", or "internal"
var UnlockErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unlock_errors_total",
		Help:      "Total number of rejected unlock attempts, by reason.",
	},
	[]string{"reason"},
)

// QuotesTotal counts price quotes served.
// Label:
//   - policy: the pricing policy used ("decay" or "flat")
var QuotesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quotes_total",
		Help:      "Total number of unlock price quotes served, by policy.",
	},
	[]string{"policy"},
)

// ── Listing metrics ───────────────────────────────────────────────────────────

// ListingsCreatedTotal counts newly published listings.
// Label:
//   - category: the listing category
var ListingsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_created_total",
		Help:      "Total number of listings published, by category.",
	},
	[]string{"category"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal counts outbound notification deliveries.
// Labels:
//   - kind:   "listing_published" or "listing_unlocked"
//   - result: "sent" or "failed" (after all retry attempts)
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of outbound notification deliveries, by kind and result.",
	},
	[]string{"kind", "result"},
)
