// Package statedb provides versioned merkle state storage interface and
// implementations.
//
// A statedb persists three logical tables on behalf of an external
// jellyfish merkle tree: tree nodes keyed by node key, keyed value
// history keyed by (preimage, version), and the preimage index mapping
// key hashes back to application key bytes. On top of those it answers
// point-in-time value lookups ("value as of version V"), which the tree
// algorithm itself does not provide.
package statedb

import (
	"github.com/blockberries/stateberry/types"
)

// TreeReader is the read side of the storage contract consumed by the
// external tree algorithm. Implementations must be safe for concurrent
// use, including concurrently with ApplyBatch.
type TreeReader interface {
	// GetNode retrieves a node payload by its node key.
	// Returns nil, nil if the node does not exist.
	GetNode(key types.NodeKey) (types.Node, error)

	// GetValue retrieves the value of the key hash as of the given
	// version: the value written at the greatest version <= version.
	// Returns nil, nil if the key was never written at or before
	// version, or if the latest write at or before version is a
	// tombstone. Returns types.ErrInvariantViolation if the underlying
	// ordered seek misbehaves; callers must not treat that as not-found.
	GetValue(version types.Version, keyHash types.KeyHash) ([]byte, error)

	// GetRightmostLeaf returns the rightmost live leaf of the tree,
	// the one with the greatest key hash, together with its node key.
	// Returns nil, nil, nil if the tree is empty.
	GetRightmostLeaf() (types.NodeKey, *types.LeafNode, error)
}

// TreeWriter is the write side of the storage contract. The whole
// batch is applied as a single atomic unit: readers never observe a
// partially applied batch.
type TreeWriter interface {
	// ApplyBatch persists all node and value writes in the batch.
	// Every value entry must reference a key hash whose preimage is
	// already stored; otherwise the batch fails with
	// types.ErrMissingPreimage and nothing is persisted.
	ApplyBatch(batch *types.NodeBatch) error
}

// PreimageStore maintains the key hash to application key mapping.
// The index only grows; there is no delete.
type PreimageStore interface {
	// SetPreimage records the preimage for a key hash. Storing the
	// identical preimage again is a no-op; storing a different preimage
	// for an existing hash fails with types.ErrPreimageMismatch.
	SetPreimage(keyHash types.KeyHash, preimage []byte) error

	// GetPreimage retrieves the preimage for a key hash.
	// Returns nil, nil if the hash has never been registered.
	GetPreimage(keyHash types.KeyHash) ([]byte, error)
}

// StateDB is the full storage contract: tree reads and writes, the
// preimage index, and lifecycle. A StateDB handle is cheap to share;
// all implementations are safe for concurrent use without external
// locking.
type StateDB interface {
	TreeReader
	TreeWriter
	PreimageStore

	// LatestVersion returns the greatest version committed through
	// ApplyBatch. The bool is false if no versioned value has been
	// written yet.
	LatestVersion() (types.Version, bool, error)

	// Close closes the store and releases resources.
	Close() error
}
