package statedb

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/blockberries/stateberry/types"
)

// DefaultCacheSize is the default number of entries per cache in a
// CachedStateDB.
const DefaultCacheSize = 10000

// CachedStateDB wraps a StateDB with LRU caches for node and preimage
// reads. Node payloads and preimages are immutable once written, so
// cached entries never go stale; batches only add entries.
type CachedStateDB struct {
	inner     StateDB
	nodes     *lru.Cache[string, []byte]
	preimages *lru.Cache[types.KeyHash, []byte]
}

var _ StateDB = (*CachedStateDB)(nil)

// NewCachedStateDB wraps inner with caches of the given size.
// If size <= 0, DefaultCacheSize is used.
func NewCachedStateDB(inner StateDB, size int) (*CachedStateDB, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	nodes, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("creating node cache: %w", err)
	}
	preimages, err := lru.New[types.KeyHash, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("creating preimage cache: %w", err)
	}
	return &CachedStateDB{
		inner:     inner,
		nodes:     nodes,
		preimages: preimages,
	}, nil
}

// GetNode retrieves a node payload, from cache when possible.
func (c *CachedStateDB) GetNode(key types.NodeKey) (types.Node, error) {
	if cached, ok := c.nodes.Get(string(key)); ok {
		return append(types.Node(nil), cached...), nil
	}

	node, err := c.inner.GetNode(key)
	if err != nil {
		return nil, err
	}
	if node != nil {
		c.nodes.Add(string(key), append([]byte(nil), node...))
	}
	return node, nil
}

// GetValue delegates to the wrapped store. Values are version-scoped
// and not cached.
func (c *CachedStateDB) GetValue(version types.Version, keyHash types.KeyHash) ([]byte, error) {
	return c.inner.GetValue(version, keyHash)
}

// GetRightmostLeaf delegates to the wrapped store.
func (c *CachedStateDB) GetRightmostLeaf() (types.NodeKey, *types.LeafNode, error) {
	return c.inner.GetRightmostLeaf()
}

// ApplyBatch applies the batch and warms the node cache with the new
// entries on success.
func (c *CachedStateDB) ApplyBatch(batch *types.NodeBatch) error {
	if err := c.inner.ApplyBatch(batch); err != nil {
		return err
	}
	for _, entry := range batch.Nodes {
		c.nodes.Add(string(entry.Key), append([]byte(nil), entry.Node...))
	}
	return nil
}

// SetPreimage records the preimage and caches it on success.
func (c *CachedStateDB) SetPreimage(keyHash types.KeyHash, preimage []byte) error {
	if err := c.inner.SetPreimage(keyHash, preimage); err != nil {
		return err
	}
	c.preimages.Add(keyHash, append([]byte(nil), preimage...))
	return nil
}

// GetPreimage retrieves the preimage, from cache when possible.
func (c *CachedStateDB) GetPreimage(keyHash types.KeyHash) ([]byte, error) {
	if cached, ok := c.preimages.Get(keyHash); ok {
		return append([]byte(nil), cached...), nil
	}

	preimage, err := c.inner.GetPreimage(keyHash)
	if err != nil {
		return nil, err
	}
	if preimage != nil {
		c.preimages.Add(keyHash, append([]byte(nil), preimage...))
	}
	return preimage, nil
}

// LatestVersion delegates to the wrapped store.
func (c *CachedStateDB) LatestVersion() (types.Version, bool, error) {
	return c.inner.LatestVersion()
}

// Close purges the caches and closes the wrapped store.
func (c *CachedStateDB) Close() error {
	c.nodes.Purge()
	c.preimages.Purge()
	return c.inner.Close()
}
