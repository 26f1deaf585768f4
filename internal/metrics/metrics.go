// Package metrics exposes Prometheus collectors for the feed pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedRequests counts feed page requests by outcome.
	FeedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "waypost_feed_requests_total",
		Help: "Feed page requests by outcome.",
	}, []string{"outcome"})

	// FeedRankingDuration observes how long a full ranking pass takes.
	FeedRankingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "waypost_feed_ranking_duration_seconds",
		Help:    "Duration of a full candidate ranking pass.",
		Buckets: prometheus.DefBuckets,
	})

	// FeedCorpusSize tracks the size of the last ranked candidate corpus.
	FeedCorpusSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "waypost_feed_corpus_size",
		Help: "Number of candidate posts in the last ranked corpus.",
	})

	// EventsProcessed counts platform stream events by type.
	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "waypost_events_processed_total",
		Help: "Platform stream events processed by type.",
	}, []string{"type"})
)
