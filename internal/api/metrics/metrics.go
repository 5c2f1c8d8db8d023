// Package metrics defines and registers all custom Prometheus metrics for the
// identity directory API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry at import time; the
// router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// LoginsTotal counts login attempts by outcome.
// Labels:
//   - result: "success", "not_found" (no membership in the target service) or
//     "bad_password"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

// TokensIssuedTotal counts successfully minted tokens.
var TokensIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of bearer tokens issued.",
	},
)

// AuthFailuresTotal counts rejected protected requests.
// Label:
//   - reason: "missing_header", "malformed_token", "expired_token",
//     "missing_claims", "no_grant" or "role_denied"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of rejected protected requests, by reason.",
	},
	[]string{"reason"},
)

// UsersCreatedTotal counts users registered through the admin API.
var UsersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of users created.",
	},
)

// UsersDeletedTotal counts users removed through the admin API.
var UsersDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_deleted_total",
		Help:      "Total number of users deleted.",
	},
)

// RoleChangesTotal counts grant upserts by the role that was assigned.
var RoleChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_changes_total",
		Help:      "Total number of role grant changes, by assigned role.",
	},
	[]string{"role"},
)

// RoleCacheTotal counts role cache lookups.
// Label:
//   - result: "hit" or "miss"
var RoleCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_cache_total",
		Help:      "Total number of role cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)
