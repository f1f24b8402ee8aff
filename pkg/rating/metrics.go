package rating

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RatingsCreated counts successfully stored ratings.
	// Labels: kind (meditation, mood, general)
	RatingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mindtuner",
			Subsystem: "ledger",
			Name:      "ratings_created_total",
			Help:      "Total number of ratings stored",
		},
		[]string{"kind"},
	)

	// PostActionFailures counts best-effort follow-ups that failed.
	// Labels: action (link_record, tag_aggregate)
	PostActionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mindtuner",
			Subsystem: "ledger",
			Name:      "post_action_failures_total",
			Help:      "Total number of best-effort rating post-actions that failed",
		},
		[]string{"action"},
	)
)
