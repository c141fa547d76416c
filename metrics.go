package orbiseo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordClustering is called after each clustering operation.
	// keywords is the number of input keywords, clusters is the number of
	// named clusters produced, duration is the total time taken.
	RecordClustering(keywords, clusters int, duration time.Duration, err error)

	// RecordSearch is called after each semantic search operation.
	// results is the number of matches returned.
	RecordSearch(results int, duration time.Duration, err error)

	// RecordExpansion is called after each keyword expansion operation.
	RecordExpansion(results int, duration time.Duration, err error)

	// RecordSERPAnalysis is called after each SERP analysis operation.
	RecordSERPAnalysis(duration time.Duration, err error)

	// RecordProviderCall is called after each outbound provider call.
	// provider identifies the collaborator ("embedding", "naming", "metrics").
	RecordProviderCall(provider string, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordClustering(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)          {}
func (NoopMetricsCollector) RecordExpansion(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordSERPAnalysis(time.Duration, error)         {}
func (NoopMetricsCollector) RecordProviderCall(string, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ClusteringCount      atomic.Int64
	ClusteringErrors     atomic.Int64
	ClusteringTotalNanos atomic.Int64
	SearchCount          atomic.Int64
	SearchErrors         atomic.Int64
	SearchTotalNanos     atomic.Int64
	ExpansionCount       atomic.Int64
	ExpansionErrors      atomic.Int64
	SERPCount            atomic.Int64
	SERPErrors           atomic.Int64
	ProviderCalls        atomic.Int64
	ProviderErrors       atomic.Int64
}

// RecordClustering implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClustering(keywords, clusters int, duration time.Duration, err error) {
	b.ClusteringCount.Add(1)
	b.ClusteringTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ClusteringErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(results int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordExpansion implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExpansion(results int, duration time.Duration, err error) {
	b.ExpansionCount.Add(1)
	if err != nil {
		b.ExpansionErrors.Add(1)
	}
}

// RecordSERPAnalysis implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSERPAnalysis(duration time.Duration, err error) {
	b.SERPCount.Add(1)
	if err != nil {
		b.SERPErrors.Add(1)
	}
}

// RecordProviderCall implements MetricsCollector.
func (b *BasicMetricsCollector) RecordProviderCall(provider string, duration time.Duration, err error) {
	b.ProviderCalls.Add(1)
	if err != nil {
		b.ProviderErrors.Add(1)
	}
}
