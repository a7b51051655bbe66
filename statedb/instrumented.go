package statedb

import (
	"errors"
	"time"

	"github.com/blockberries/stateberry/metrics"
	"github.com/blockberries/stateberry/types"
)

// InstrumentedStateDB wraps a StateDB and reports operation counters
// and latencies to a metrics.Metrics implementation.
type InstrumentedStateDB struct {
	inner StateDB
	m     metrics.Metrics
}

var _ StateDB = (*InstrumentedStateDB)(nil)

// NewInstrumentedStateDB wraps inner with metrics reporting.
// A nil m falls back to metrics.NewNopMetrics().
func NewInstrumentedStateDB(inner StateDB, m metrics.Metrics) *InstrumentedStateDB {
	if m == nil {
		m = metrics.NewNopMetrics()
	}
	return &InstrumentedStateDB{inner: inner, m: m}
}

// GetNode retrieves a node payload, counting hits and misses.
func (s *InstrumentedStateDB) GetNode(key types.NodeKey) (types.Node, error) {
	start := time.Now()
	node, err := s.inner.GetNode(key)
	s.m.ObserveLookupLatency(metrics.OpGetNode, time.Since(start))
	if err == nil {
		if node != nil {
			s.m.IncNodeReads(metrics.ResultHit)
		} else {
			s.m.IncNodeReads(metrics.ResultMiss)
		}
	}
	return node, err
}

// GetValue retrieves a versioned value, counting hits and misses.
func (s *InstrumentedStateDB) GetValue(version types.Version, keyHash types.KeyHash) ([]byte, error) {
	start := time.Now()
	value, err := s.inner.GetValue(version, keyHash)
	s.m.ObserveLookupLatency(metrics.OpGetValue, time.Since(start))
	if err == nil {
		if value != nil {
			s.m.IncValueLookups(metrics.ResultHit)
		} else {
			s.m.IncValueLookups(metrics.ResultMiss)
		}
	}
	return value, err
}

// GetRightmostLeaf delegates with latency reporting.
func (s *InstrumentedStateDB) GetRightmostLeaf() (types.NodeKey, *types.LeafNode, error) {
	start := time.Now()
	nodeKey, leaf, err := s.inner.GetRightmostLeaf()
	s.m.ObserveLookupLatency(metrics.OpGetRightmostLeaf, time.Since(start))
	return nodeKey, leaf, err
}

// ApplyBatch applies the batch, reporting sizes, latency and outcome.
func (s *InstrumentedStateDB) ApplyBatch(batch *types.NodeBatch) error {
	start := time.Now()
	err := s.inner.ApplyBatch(batch)
	s.m.ObserveBatchLatency(time.Since(start))

	if err != nil {
		if errors.Is(err, types.ErrMissingPreimage) {
			s.m.IncBatchErrors(metrics.ReasonMissingPreimage)
		} else {
			s.m.IncBatchErrors(metrics.ReasonStorage)
		}
		return err
	}

	s.m.IncBatchesApplied()
	s.m.ObserveBatchNodes(len(batch.Nodes))
	s.m.ObserveBatchValues(len(batch.Values))
	if version, ok, verr := s.inner.LatestVersion(); verr == nil && ok {
		s.m.SetLatestVersion(version.Uint64())
	}
	return nil
}

// SetPreimage records the preimage and counts the write.
func (s *InstrumentedStateDB) SetPreimage(keyHash types.KeyHash, preimage []byte) error {
	if err := s.inner.SetPreimage(keyHash, preimage); err != nil {
		return err
	}
	s.m.IncPreimageWrites()
	return nil
}

// GetPreimage delegates to the wrapped store.
func (s *InstrumentedStateDB) GetPreimage(keyHash types.KeyHash) ([]byte, error) {
	return s.inner.GetPreimage(keyHash)
}

// LatestVersion delegates to the wrapped store.
func (s *InstrumentedStateDB) LatestVersion() (types.Version, bool, error) {
	return s.inner.LatestVersion()
}

// Close closes the wrapped store.
func (s *InstrumentedStateDB) Close() error {
	return s.inner.Close()
}
