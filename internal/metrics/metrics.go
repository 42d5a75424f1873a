// Package metrics provides Prometheus metrics for the magazine front end.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreRequests counts requests sent to the hosted content store.
	StoreRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inflections",
			Name:      "store_requests_total",
			Help:      "Total number of content store requests",
		},
		[]string{"method", "status"},
	)

	// StoreDuration measures content store round trips.
	StoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inflections",
			Name:      "store_request_duration_seconds",
			Help:      "Duration of content store requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inflections",
			Name:      "cache_lookups_total",
			Help:      "Query cache lookups by operation and result (hit, miss)",
		},
		[]string{"operation", "result"},
	)

	// QueryFailures counts reads that were soft-failed to an empty result.
	QueryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inflections",
			Name:      "query_failures_total",
			Help:      "Total number of facade queries that fell back to an empty result",
		},
		[]string{"operation"},
	)

	IntegrityIssues = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "inflections",
			Name:      "integrity_findings",
			Help:      "Findings of the last content integrity audit by kind",
		},
		[]string{"kind"},
	)

	NewsletterSubscriptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inflections",
			Name:      "newsletter_subscriptions_total",
			Help:      "Newsletter subscription attempts by outcome",
		},
		[]string{"outcome"},
	)
)

func RecordStoreRequest(method, status string, seconds float64) {
	StoreRequests.WithLabelValues(method, status).Inc()
	StoreDuration.WithLabelValues(method).Observe(seconds)
}

func RecordCacheLookup(operation string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(operation, result).Inc()
}

func RecordQueryFailure(operation string) {
	QueryFailures.WithLabelValues(operation).Inc()
}

func RecordSubscription(outcome string) {
	NewsletterSubscriptions.WithLabelValues(outcome).Inc()
}
