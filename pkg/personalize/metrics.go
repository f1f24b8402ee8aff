package personalize

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Generations counts generation attempts.
	// Labels: mode (enhanced, plain, regenerate), outcome (success, validation, generation_failed, persistence)
	Generations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mindtuner",
			Subsystem: "personalize",
			Name:      "generations_total",
			Help:      "Total number of meditation generation attempts",
		},
		[]string{"mode", "outcome"},
	)

	// GenerationDuration tracks end-to-end generation latency.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mindtuner",
			Subsystem: "personalize",
			Name:      "generation_duration_seconds",
			Help:      "Duration of meditation generation in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"mode"},
	)

	// SynthesisDegraded counts generations persisted without audio.
	// Labels: reason (synthesis_failed, invalid_url)
	SynthesisDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mindtuner",
			Subsystem: "personalize",
			Name:      "synthesis_degraded_total",
			Help:      "Total number of generations that fell back to no audio",
		},
		[]string{"reason"},
	)
)
