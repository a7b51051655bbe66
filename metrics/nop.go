package metrics

import (
	"time"
)

// NopMetrics is a no-op implementation of the Metrics interface.
// Use this when metrics collection is disabled.
type NopMetrics struct{}

// NewNopMetrics creates a new NopMetrics instance.
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

// Store metrics (no-op)

func (m *NopMetrics) SetLatestVersion(version uint64)                       {}
func (m *NopMetrics) IncNodeReads(result string)                            {}
func (m *NopMetrics) IncValueLookups(result string)                         {}
func (m *NopMetrics) IncPreimageWrites()                                    {}
func (m *NopMetrics) ObserveLookupLatency(op string, latency time.Duration) {}

// Batch metrics (no-op)

func (m *NopMetrics) IncBatchesApplied()                        {}
func (m *NopMetrics) IncBatchErrors(reason string)              {}
func (m *NopMetrics) ObserveBatchNodes(count int)               {}
func (m *NopMetrics) ObserveBatchValues(count int)              {}
func (m *NopMetrics) ObserveBatchLatency(latency time.Duration) {}

// Handler returns nil; there is nothing to serve.
func (m *NopMetrics) Handler() any { return nil }
