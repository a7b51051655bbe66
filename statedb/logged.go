package statedb

import (
	"errors"

	"github.com/blockberries/stateberry/logging"
	"github.com/blockberries/stateberry/types"
)

// LoggedStateDB wraps a StateDB and logs mutations and failures.
// Read paths stay silent unless they error.
type LoggedStateDB struct {
	inner StateDB
	log   *logging.Logger
}

var _ StateDB = (*LoggedStateDB)(nil)

// NewLoggedStateDB wraps inner with logging.
// A nil log falls back to logging.NewNopLogger().
func NewLoggedStateDB(inner StateDB, log *logging.Logger) *LoggedStateDB {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &LoggedStateDB{inner: inner, log: log.WithComponent("statedb")}
}

// GetNode retrieves a node payload, logging failures.
func (s *LoggedStateDB) GetNode(key types.NodeKey) (types.Node, error) {
	node, err := s.inner.GetNode(key)
	if err != nil {
		s.log.Error("node read failed", logging.NodeKey(key), logging.Error(err))
	}
	return node, err
}

// GetValue retrieves a versioned value, logging failures.
func (s *LoggedStateDB) GetValue(version types.Version, keyHash types.KeyHash) ([]byte, error) {
	value, err := s.inner.GetValue(version, keyHash)
	if err != nil {
		s.log.Error("value lookup failed",
			logging.Version(version.Uint64()), logging.KeyHash(keyHash), logging.Error(err))
	}
	return value, err
}

// GetRightmostLeaf delegates, logging failures.
func (s *LoggedStateDB) GetRightmostLeaf() (types.NodeKey, *types.LeafNode, error) {
	nodeKey, leaf, err := s.inner.GetRightmostLeaf()
	if err != nil {
		s.log.Error("rightmost leaf lookup failed", logging.Error(err))
	}
	return nodeKey, leaf, err
}

// ApplyBatch applies the batch, logging the outcome.
func (s *LoggedStateDB) ApplyBatch(batch *types.NodeBatch) error {
	if err := s.inner.ApplyBatch(batch); err != nil {
		reason := "storage"
		if errors.Is(err, types.ErrMissingPreimage) {
			reason = "missing_preimage"
		}
		s.log.Error("batch apply failed",
			logging.BatchNodes(len(batch.Nodes)), logging.BatchValues(len(batch.Values)),
			logging.Reason(reason), logging.Error(err))
		return err
	}

	attrs := []any{
		logging.BatchNodes(len(batch.Nodes)),
		logging.BatchValues(len(batch.Values)),
	}
	if version, ok := batch.MaxVersion(); ok {
		attrs = append(attrs, logging.Version(version.Uint64()))
	}
	s.log.Debug("batch applied", attrs...)
	return nil
}

// SetPreimage records the preimage, logging failures.
func (s *LoggedStateDB) SetPreimage(keyHash types.KeyHash, preimage []byte) error {
	if err := s.inner.SetPreimage(keyHash, preimage); err != nil {
		s.log.Error("preimage write failed", logging.KeyHash(keyHash), logging.Error(err))
		return err
	}
	return nil
}

// GetPreimage delegates to the wrapped store.
func (s *LoggedStateDB) GetPreimage(keyHash types.KeyHash) ([]byte, error) {
	return s.inner.GetPreimage(keyHash)
}

// LatestVersion delegates to the wrapped store.
func (s *LoggedStateDB) LatestVersion() (types.Version, bool, error) {
	return s.inner.LatestVersion()
}

// Close closes the wrapped store.
func (s *LoggedStateDB) Close() error {
	if err := s.inner.Close(); err != nil {
		s.log.Error("close failed", logging.Error(err))
		return err
	}
	s.log.Debug("state store closed")
	return nil
}
