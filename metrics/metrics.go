// Package metrics provides metrics collection for stateberry.
package metrics

import "time"

// Metrics defines the metrics collected by the state store.
type Metrics interface {
	// Store metrics
	SetLatestVersion(version uint64)
	IncNodeReads(result string)
	IncValueLookups(result string)
	IncPreimageWrites()
	ObserveLookupLatency(op string, latency time.Duration)

	// Batch metrics
	IncBatchesApplied()
	IncBatchErrors(reason string)
	ObserveBatchNodes(count int)
	ObserveBatchValues(count int)
	ObserveBatchLatency(latency time.Duration)

	// HTTP handler (for serving metrics)
	Handler() any
}

// Lookup result labels.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

// Lookup operation labels.
const (
	OpGetNode          = "get_node"
	OpGetValue         = "get_value"
	OpGetRightmostLeaf = "get_rightmost_leaf"
)

// Batch error reason labels.
const (
	ReasonMissingPreimage = "missing_preimage"
	ReasonStorage         = "storage"
)
