package statedb

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/blockberries/stateberry/logging"
	"github.com/blockberries/stateberry/types"
)

// BadgerDBStateDB implements StateDB using BadgerDB.
// BadgerDB is optimized for SSDs and offers better write performance
// than LevelDB for certain workloads.
type BadgerDBStateDB struct {
	db        *badger.DB
	path      string
	latest    types.Version
	hasLatest bool
	mu        sync.RWMutex
}

var _ StateDB = (*BadgerDBStateDB)(nil)

// BadgerDBOptions contains configuration options for BadgerDB.
type BadgerDBOptions struct {
	// SyncWrites ensures durability by syncing writes to disk.
	// Default: true
	SyncWrites bool

	// Compression enables Snappy compression for values.
	// Default: true
	Compression bool

	// ValueLogFileSize is the maximum size of a single value log file.
	// Default: 1GB
	ValueLogFileSize int64

	// MemTableSize is the size of the memtable.
	// Default: 64MB
	MemTableSize int64

	// NumMemtables is the number of memtables to keep in memory.
	// Default: 5
	NumMemtables int

	// Logger is an optional logger for BadgerDB.
	// If nil, logging is disabled.
	Logger badger.Logger
}

// DefaultBadgerDBOptions returns sensible default options.
func DefaultBadgerDBOptions() *BadgerDBOptions {
	return &BadgerDBOptions{
		SyncWrites:       true,
		Compression:      true,
		ValueLogFileSize: 1 << 30,  // 1GB
		MemTableSize:     64 << 20, // 64MB
		NumMemtables:     5,
	}
}

// NewBadgerDBStateDB creates a new BadgerDB-backed state store.
func NewBadgerDBStateDB(path string) (*BadgerDBStateDB, error) {
	return NewBadgerDBStateDBWithOptions(path, DefaultBadgerDBOptions())
}

// NewBadgerDBStateDBWithOptions creates a new BadgerDB-backed state
// store with custom options.
func NewBadgerDBStateDBWithOptions(path string, opts *BadgerDBOptions) (*BadgerDBStateDB, error) {
	if opts == nil {
		opts = DefaultBadgerDBOptions()
	}

	badgerOpts := badger.DefaultOptions(path)
	badgerOpts = badgerOpts.WithSyncWrites(opts.SyncWrites)
	badgerOpts = badgerOpts.WithValueLogFileSize(opts.ValueLogFileSize)
	badgerOpts = badgerOpts.WithMemTableSize(opts.MemTableSize)
	badgerOpts = badgerOpts.WithNumMemtables(opts.NumMemtables)

	if opts.Compression {
		badgerOpts = badgerOpts.WithCompression(options.Snappy)
	} else {
		badgerOpts = badgerOpts.WithCompression(options.None)
	}

	if opts.Logger != nil {
		badgerOpts = badgerOpts.WithLogger(opts.Logger)
	} else {
		badgerOpts = badgerOpts.WithLogger(nil)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("opening badgerdb: %w", err)
	}

	store := &BadgerDBStateDB{
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
func (s *BadgerDBStateDB) loadMetadata() error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyMetaVersion)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			s.latest = decodeVersion(val)
			s.hasLatest = true
			return nil
		})
	})
}

// GetNode retrieves a node payload by its node key.
func (s *BadgerDBStateDB) GetNode(key types.NodeKey) (types.Node, error) {
	var node types.Node

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeNodeKey(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		node = types.Node(raw)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("getting node: %w", err)
	}
	return node, nil
}

// GetValue retrieves the value of the key hash as of the given version.
func (s *BadgerDBStateDB) GetValue(version types.Version, keyHash types.KeyHash) ([]byte, error) {
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makePreimageKey(keyHash))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		preimage, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		// Reverse iteration restricted to this preimage's history;
		// seeking the target key lands on the greatest stored key at
		// or before (preimage, version).
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = makeValuePrefix(preimage)

		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(makeValueKey(preimage, version))
		if !it.Valid() {
			return nil
		}

		foundPreimage, foundVersion, err := parseValueKey(it.Item().Key())
		if err != nil {
			return fmt.Errorf("parsing value key: %w", err)
		}
		if !bytes.Equal(foundPreimage, preimage) {
			return nil
		}
		if foundVersion > version {
			return fmt.Errorf("%w: requested version <= %d, seek returned %d", types.ErrInvariantViolation, version, foundVersion)
		}

		raw, err := it.Item().ValueCopy(nil)
		if err != nil {
			return err
		}
		decoded, tombstone, err := decodeValue(raw)
		if err != nil {
			return err
		}
		if !tombstone {
			value = decoded
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// GetRightmostLeaf returns the live leaf with the greatest key hash.
func (s *BadgerDBStateDB) GetRightmostLeaf() (types.NodeKey, *types.LeafNode, error) {
	var (
		nodeKey types.NodeKey
		leaf    *types.LeafNode
	)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefixLeaf

		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(leafScanUpperBound())
		if !it.Valid() {
			return nil
		}

		raw, err := it.Item().ValueCopy(nil)
		if err != nil {
			return err
		}
		nodeKey, leaf, err = parseLeafEntry(raw)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("getting rightmost leaf: %w", err)
	}
	return nodeKey, leaf, nil
}

// ApplyBatch applies all writes in the batch as a single transaction.
// Readers never observe a partially applied batch.
func (s *BadgerDBStateDB) ApplyBatch(batch *types.NodeBatch) error {
	maxVersion, hasValues := batch.MaxVersion()

	// Serialize batch applications: badger does not conflict-check
	// blind writes, so an unserialized lower-version batch committing
	// late could overwrite a newer meta version record.
	s.mu.Lock()
	defer s.mu.Unlock()

	bump := hasValues && (!s.hasLatest || maxVersion > s.latest)

	err := s.db.Update(func(txn *badger.Txn) error {
		// Resolve every preimage first; a missing one aborts the
		// transaction with nothing persisted.
		resolved := make(map[types.KeyHash][]byte, len(batch.Values))
		for _, entry := range batch.Values {
			if _, ok := resolved[entry.KeyHash]; ok {
				continue
			}
			item, err := txn.Get(makePreimageKey(entry.KeyHash))
			if err == badger.ErrKeyNotFound {
				return fmt.Errorf("%w: %s", types.ErrMissingPreimage, entry.KeyHash)
			}
			if err != nil {
				return err
			}
			preimage, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			resolved[entry.KeyHash] = preimage
		}

		for _, entry := range batch.Nodes {
			if err := txn.Set(makeNodeKey(entry.Key), entry.Node); err != nil {
				return err
			}
			if entry.Node.IsLeaf() {
				leaf, err := entry.Node.Leaf()
				if err != nil {
					return err
				}
				if err := txn.Set(makeLeafKey(leaf.KeyHash), makeLeafEntry(entry.Key, entry.Node)); err != nil {
					return err
				}
			}
		}

		for _, entry := range batch.Values {
			key := makeValueKey(resolved[entry.KeyHash], entry.Version)
			if err := txn.Set(key, encodeValue(entry.Value)); err != nil {
				return err
			}
			if entry.IsTombstone() {
				if err := txn.Delete(makeLeafKey(entry.KeyHash)); err != nil {
					return err
				}
			}
		}

		if bump {
			if err := txn.Set(keyMetaVersion, encodeVersion(maxVersion)); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("applying batch: %w", err)
	}

	if bump {
		s.latest = maxVersion
		s.hasLatest = true
	}

	return nil
}

// SetPreimage records the preimage for a key hash.
func (s *BadgerDBStateDB) SetPreimage(keyHash types.KeyHash, preimage []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		key := makePreimageKey(keyHash)

		item, err := txn.Get(key)
		if err == nil {
			existing, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !bytes.Equal(existing, preimage) {
				return fmt.Errorf("%w: %s", types.ErrPreimageMismatch, keyHash)
			}
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		return txn.Set(key, preimage)
	})
	if err != nil {
		return fmt.Errorf("setting preimage: %w", err)
	}
	return nil
}

// GetPreimage retrieves the preimage for a key hash.
func (s *BadgerDBStateDB) GetPreimage(keyHash types.KeyHash) ([]byte, error) {
	var preimage []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makePreimageKey(keyHash))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		preimage, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting preimage: %w", err)
	}
	return preimage, nil
}

// LatestVersion returns the greatest committed version.
func (s *BadgerDBStateDB) LatestVersion() (types.Version, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.hasLatest, nil
}

// Close closes the database.
func (s *BadgerDBStateDB) Close() error {
	return s.db.Close()
}

// Path returns the directory the store was opened against.
func (s *BadgerDBStateDB) Path() string {
	return s.path
}

// badgerLogger adapts a logging.Logger to the badger.Logger contract.
// Badger terminates its messages with newlines; those are trimmed.
type badgerLogger struct {
	log *logging.Logger
}

// NewBadgerLogger builds a badger.Logger over log, suitable for
// BadgerDBOptions.Logger.
func NewBadgerLogger(log *logging.Logger) badger.Logger {
	return badgerLogger{log: log.WithComponent("badger")}
}

func (l badgerLogger) format(format string, args ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(l.format(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(l.format(format, args...))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Info(l.format(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(l.format(format, args...))
}
