package statedb

import (
	"fmt"

	"github.com/blockberries/stateberry/config"
	"github.com/blockberries/stateberry/logging"
)

// Open constructs a StateDB from configuration. When CacheSize is
// positive the backend is wrapped in a CachedStateDB. When log is
// non-nil the result is wrapped in a LoggedStateDB and the badger
// backend routes its engine logs through it; a nil log disables
// logging entirely.
func Open(cfg config.StateDBConfig, log *logging.Logger) (StateDB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid statedb config: %w", err)
	}

	var (
		store StateDB
		err   error
	)
	switch cfg.Backend {
	case config.BackendBadgerDB:
		opts := DefaultBadgerDBOptions()
		opts.SyncWrites = cfg.Badger.SyncWrites
		opts.Compression = cfg.Badger.Compression
		opts.ValueLogFileSize = cfg.Badger.ValueLogFileSize
		opts.MemTableSize = cfg.Badger.MemTableSize
		opts.NumMemtables = cfg.Badger.NumMemtables
		if log != nil {
			opts.Logger = NewBadgerLogger(log)
		}
		store, err = NewBadgerDBStateDBWithOptions(cfg.Path, opts)
	case config.BackendLevelDB:
		store, err = NewLevelDBStateDB(cfg.Path)
	case config.BackendMemory:
		store = NewMemoryStateDB()
	default:
		return nil, config.ErrInvalidBackend
	}
	if err != nil {
		if log != nil {
			log.Error("opening state store failed",
				logging.Backend(cfg.Backend), logging.Path(cfg.Path), logging.Error(err))
		}
		return nil, err
	}

	if cfg.CacheSize > 0 {
		cached, err := NewCachedStateDB(store, cfg.CacheSize)
		if err != nil {
			store.Close()
			return nil, err
		}
		store = cached
	}

	if log != nil {
		log.Info("state store opened",
			logging.Backend(cfg.Backend), logging.Path(cfg.Path))
		return NewLoggedStateDB(store, log), nil
	}
	return store, nil
}
