package statedb

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/blockberries/stateberry/types"
)

// LevelDBStateDB implements StateDB using LevelDB.
type LevelDBStateDB struct {
	db        *leveldb.DB
	path      string
	latest    types.Version
	hasLatest bool
	mu        sync.RWMutex
}

var _ StateDB = (*LevelDBStateDB)(nil)

// NewLevelDBStateDB creates a new LevelDB-backed state store.
func NewLevelDBStateDB(path string) (*LevelDBStateDB, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		NoSync: false,
	})
	if err != nil {
		return nil, fmt.Errorf("opening leveldb: %w", err)
	}

	store := &LevelDBStateDB{
		db:   db,
		path: path,
	}

	if err := store.loadMetadata(); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading metadata: %w", err)
	}

	return store, nil
}

// loadMetadata loads the latest committed version from the database.
func (s *LevelDBStateDB) loadMetadata() error {
	data, err := s.db.Get(keyMetaVersion, nil)
	if err == nil {
		s.latest = decodeVersion(data)
		s.hasLatest = true
		return nil
	}
	if err != leveldb.ErrNotFound {
		return err
	}
	return nil
}

// GetNode retrieves a node payload by its node key.
func (s *LevelDBStateDB) GetNode(key types.NodeKey) (types.Node, error) {
	data, err := s.db.Get(makeNodeKey(key), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting node: %w", err)
	}
	return types.Node(data), nil
}

// GetValue retrieves the value of the key hash as of the given version.
func (s *LevelDBStateDB) GetValue(version types.Version, keyHash types.KeyHash) ([]byte, error) {
	preimage, err := s.db.Get(makePreimageKey(keyHash), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting preimage: %w", err)
	}

	it := s.db.NewIterator(util.BytesPrefix(prefixValue), nil)
	defer it.Release()

	// Seek-for-prev: position at the greatest stored key <= the
	// (preimage, version) target.
	target := makeValueKey(preimage, version)
	var found bool
	if it.Seek(target) {
		if bytes.Equal(it.Key(), target) {
			found = true
		} else {
			found = it.Prev()
		}
	} else {
		found = it.Last()
	}
	if !found {
		if err := it.Error(); err != nil {
			return nil, fmt.Errorf("seeking value: %w", err)
		}
		return nil, nil
	}

	foundPreimage, foundVersion, err := parseValueKey(it.Key())
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

	value, tombstone, err := decodeValue(it.Value())
	if err != nil {
		return nil, err
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("iterating values: %w", err)
	}
	if tombstone {
		return nil, nil
	}
	return value, nil
}

// GetRightmostLeaf returns the live leaf with the greatest key hash.
func (s *LevelDBStateDB) GetRightmostLeaf() (types.NodeKey, *types.LeafNode, error) {
	it := s.db.NewIterator(util.BytesPrefix(prefixLeaf), nil)
	defer it.Release()

	if !it.Last() {
		if err := it.Error(); err != nil {
			return nil, nil, fmt.Errorf("seeking leaf index: %w", err)
		}
		return nil, nil, nil
	}

	nodeKey, leaf, err := parseLeafEntry(it.Value())
	if err != nil {
		return nil, nil, err
	}
	return nodeKey, leaf, nil
}

// ApplyBatch applies all writes in the batch via a single write batch.
// Readers never observe a partially applied batch.
func (s *LevelDBStateDB) ApplyBatch(batch *types.NodeBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Resolve every preimage before building the write batch so a
	// missing one leaves the store untouched.
	resolved := make(map[types.KeyHash][]byte, len(batch.Values))
	for _, entry := range batch.Values {
		if _, ok := resolved[entry.KeyHash]; ok {
			continue
		}
		preimage, err := s.db.Get(makePreimageKey(entry.KeyHash), nil)
		if err == leveldb.ErrNotFound {
			return fmt.Errorf("%w: %s", types.ErrMissingPreimage, entry.KeyHash)
		}
		if err != nil {
			return fmt.Errorf("resolving preimage: %w", err)
		}
		resolved[entry.KeyHash] = preimage
	}

	wb := new(leveldb.Batch)

	for _, entry := range batch.Nodes {
		wb.Put(makeNodeKey(entry.Key), entry.Node)
		if entry.Node.IsLeaf() {
			leaf, err := entry.Node.Leaf()
			if err != nil {
				return err
			}
			wb.Put(makeLeafKey(leaf.KeyHash), makeLeafEntry(entry.Key, entry.Node))
		}
	}

	for _, entry := range batch.Values {
		wb.Put(makeValueKey(resolved[entry.KeyHash], entry.Version), encodeValue(entry.Value))
		if entry.IsTombstone() {
			wb.Delete(makeLeafKey(entry.KeyHash))
		}
	}

	maxVersion, hasValues := batch.MaxVersion()
	bump := hasValues && (!s.hasLatest || maxVersion > s.latest)
	if bump {
		wb.Put(keyMetaVersion, encodeVersion(maxVersion))
	}

	if err := s.db.Write(wb, nil); err != nil {
		return fmt.Errorf("writing batch: %w", err)
	}

	if bump {
		s.latest = maxVersion
		s.hasLatest = true
	}

	return nil
}

// SetPreimage records the preimage for a key hash.
func (s *LevelDBStateDB) SetPreimage(keyHash types.KeyHash, preimage []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := makePreimageKey(keyHash)
	existing, err := s.db.Get(key, nil)
	if err == nil {
		if !bytes.Equal(existing, preimage) {
			return fmt.Errorf("%w: %s", types.ErrPreimageMismatch, keyHash)
		}
		return nil
	}
	if err != leveldb.ErrNotFound {
		return fmt.Errorf("checking preimage: %w", err)
	}

	if err := s.db.Put(key, preimage, nil); err != nil {
		return fmt.Errorf("setting preimage: %w", err)
	}
	return nil
}

// GetPreimage retrieves the preimage for a key hash.
func (s *LevelDBStateDB) GetPreimage(keyHash types.KeyHash) ([]byte, error) {
	preimage, err := s.db.Get(makePreimageKey(keyHash), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting preimage: %w", err)
	}
	return preimage, nil
}

// LatestVersion returns the greatest committed version.
func (s *LevelDBStateDB) LatestVersion() (types.Version, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.hasLatest, nil
}

// Close closes the database.
func (s *LevelDBStateDB) Close() error {
	return s.db.Close()
}

// Path returns the directory the store was opened against.
func (s *LevelDBStateDB) Path() string {
	return s.path
}
