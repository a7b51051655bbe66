package statedb

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/blockberries/stateberry/types"
)

// MemoryStateDB implements StateDB with in-memory storage.
// Primarily used for testing and ephemeral stores.
type MemoryStateDB struct {
	nodes     map[string][]byte
	preimages map[types.KeyHash][]byte
	values    map[string][]byte
	valueKeys []string // sorted; mirrors the keys of values
	leaves    map[types.KeyHash][]byte
	latest    types.Version
	hasLatest bool
	closed    bool
	mu        sync.RWMutex
}

var _ StateDB = (*MemoryStateDB)(nil)

// NewMemoryStateDB creates a new in-memory state store.
func NewMemoryStateDB() *MemoryStateDB {
	return &MemoryStateDB{
		nodes:     make(map[string][]byte),
		preimages: make(map[types.KeyHash][]byte),
		values:    make(map[string][]byte),
		leaves:    make(map[types.KeyHash][]byte),
	}
}

// GetNode retrieves a node payload by its node key.
func (m *MemoryStateDB) GetNode(key types.NodeKey) (types.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, types.ErrClosed
	}

	node, ok := m.nodes[string(makeNodeKey(key))]
	if !ok {
		return nil, nil
	}
	return append(types.Node(nil), node...), nil
}

// GetValue retrieves the value of the key hash as of the given version.
func (m *MemoryStateDB) GetValue(version types.Version, keyHash types.KeyHash) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, types.ErrClosed
	}

	preimage, ok := m.preimages[keyHash]
	if !ok {
		return nil, nil
	}

	// Seek-for-prev over the sorted key list: greatest stored key <=
	// the (preimage, version) target.
	target := string(makeValueKey(preimage, version))
	idx := sort.SearchStrings(m.valueKeys, target)
	if idx == len(m.valueKeys) || m.valueKeys[idx] != target {
		idx--
	}
	if idx < 0 {
		return nil, nil
	}

	found := m.valueKeys[idx]
	foundPreimage, foundVersion, err := parseValueKey([]byte(found))
	if err != nil {
		return nil, fmt.Errorf("parsing value key: %w", err)
	}
	if !bytes.Equal(foundPreimage, preimage) {
		// Nearest entry belongs to a smaller preimage: no write at or
		// before the requested version.
		return nil, nil
	}
	if foundVersion > version {
		return nil, fmt.Errorf("%w: requested version <= %d, seek returned %d", types.ErrInvariantViolation, version, foundVersion)
	}

	value, tombstone, err := decodeValue(m.values[found])
	if err != nil {
		return nil, err
	}
	if tombstone {
		return nil, nil
	}
	return value, nil
}

// GetRightmostLeaf returns the live leaf with the greatest key hash.
func (m *MemoryStateDB) GetRightmostLeaf() (types.NodeKey, *types.LeafNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, nil, types.ErrClosed
	}

	var (
		best      types.KeyHash
		bestEntry []byte
		found     bool
	)
	for kh, entry := range m.leaves {
		if !found || bytes.Compare(kh[:], best[:]) > 0 {
			best = kh
			bestEntry = entry
			found = true
		}
	}
	if !found {
		return nil, nil, nil
	}
	return parseLeafEntry(bestEntry)
}

// ApplyBatch applies all writes in the batch atomically.
func (m *MemoryStateDB) ApplyBatch(batch *types.NodeBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return types.ErrClosed
	}

	// Resolve every preimage and validate every leaf before touching
	// any table so a bad batch leaves the store untouched.
	resolved := make(map[types.KeyHash][]byte, len(batch.Values))
	for _, entry := range batch.Values {
		preimage, ok := m.preimages[entry.KeyHash]
		if !ok {
			return fmt.Errorf("%w: %s", types.ErrMissingPreimage, entry.KeyHash)
		}
		resolved[entry.KeyHash] = preimage
	}
	for _, entry := range batch.Nodes {
		if entry.Node.IsLeaf() {
			if _, err := entry.Node.Leaf(); err != nil {
				return err
			}
		}
	}

	for _, entry := range batch.Nodes {
		m.nodes[string(makeNodeKey(entry.Key))] = append([]byte(nil), entry.Node...)
		if entry.Node.IsLeaf() {
			leaf, _ := entry.Node.Leaf()
			m.leaves[leaf.KeyHash] = makeLeafEntry(entry.Key, entry.Node)
		}
	}

	for _, entry := range batch.Values {
		key := string(makeValueKey(resolved[entry.KeyHash], entry.Version))
		if _, exists := m.values[key]; !exists {
			m.insertValueKey(key)
		}
		if entry.IsTombstone() {
			m.values[key] = encodeValue(nil)
			delete(m.leaves, entry.KeyHash)
		} else {
			m.values[key] = encodeValue(entry.Value)
		}
		if !m.hasLatest || entry.Version > m.latest {
			m.latest = entry.Version
			m.hasLatest = true
		}
	}

	return nil
}

// insertValueKey inserts key into the sorted key list.
func (m *MemoryStateDB) insertValueKey(key string) {
	idx := sort.SearchStrings(m.valueKeys, key)
	m.valueKeys = append(m.valueKeys, "")
	copy(m.valueKeys[idx+1:], m.valueKeys[idx:])
	m.valueKeys[idx] = key
}

// SetPreimage records the preimage for a key hash.
func (m *MemoryStateDB) SetPreimage(keyHash types.KeyHash, preimage []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return types.ErrClosed
	}

	if existing, ok := m.preimages[keyHash]; ok {
		if !bytes.Equal(existing, preimage) {
			return fmt.Errorf("%w: %s", types.ErrPreimageMismatch, keyHash)
		}
		return nil
	}
	m.preimages[keyHash] = append([]byte(nil), preimage...)
	return nil
}

// GetPreimage retrieves the preimage for a key hash.
func (m *MemoryStateDB) GetPreimage(keyHash types.KeyHash) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, types.ErrClosed
	}

	preimage, ok := m.preimages[keyHash]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), preimage...), nil
}

// LatestVersion returns the greatest committed version.
func (m *MemoryStateDB) LatestVersion() (types.Version, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, false, types.ErrClosed
	}
	return m.latest, m.hasLatest, nil
}

// Close releases the store; all subsequent operations fail with
// types.ErrClosed.
func (m *MemoryStateDB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.nodes = nil
	m.preimages = nil
	m.values = nil
	m.valueKeys = nil
	m.leaves = nil
	return nil
}
