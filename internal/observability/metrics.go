package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RetrievalFallbacks counts keyword searches broadened for being too narrow.
	RetrievalFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "concierge",
		Subsystem: "retrieval",
		Name:      "fallback_total",
		Help:      "Keyword searches re-issued without keywords after returning too few amenities",
	})

	// RetrievalCandidates observes how many amenities reach the model.
	RetrievalCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "concierge",
		Subsystem: "retrieval",
		Name:      "candidates",
		Help:      "Amenities returned by retrieval per request",
		Buckets:   []float64{0, 1, 3, 5, 10, 20, 30},
	})

	// GroundingDropped counts model-recommended slugs missing from the candidates.
	GroundingDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "concierge",
		Subsystem: "grounding",
		Name:      "dropped_slugs_total",
		Help:      "Recommended slugs discarded because they were not retrieved",
	})

	// GenerationDegraded counts model replies that could not be parsed.
	GenerationDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "concierge",
		Subsystem: "generation",
		Name:      "degraded_total",
		Help:      "Model replies answered as raw text because no JSON object could be parsed",
	})

	// GenerationErrors counts failed model calls by kind.
	GenerationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "concierge",
		Subsystem: "generation",
		Name:      "errors_total",
		Help:      "Failed model calls by kind",
	}, []string{"kind"})

	// PipelineLatency observes end-to-end chat latency by outcome.
	PipelineLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "concierge",
		Subsystem: "chat",
		Name:      "latency_seconds",
		Help:      "Chat pipeline latency",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
	}, []string{"outcome"})
)
