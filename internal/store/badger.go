package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/abhisek/prepday/internal/logger"
)

// BadgerConfig configures the embedded Badger backend.
type BadgerConfig struct {
	// Path is the database directory. Required unless InMemory.
	Path string

	// InMemory keeps all data in memory. Intended for tests.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Logger receives Badger's internal log output. Nil disables it.
	Logger *logger.Logger

	// GCInterval is how often the value log is garbage collected (0 = never).
	GCInterval time.Duration

	// GCDiscardRatio is passed to RunValueLogGC.
	GCDiscardRatio float64
}

// DefaultBadgerConfig returns production defaults for the directory at path.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryBadgerConfig returns a configuration for an ephemeral database.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// BadgerStore is a UserStateRepo on an embedded Badger database. Badger's
// transaction conflict detection backs the version check.
type BadgerStore struct {
	db     *badger.DB
	stopGC chan struct{}
	doneGC chan struct{}
}

// badgerRecord is the stored value: the document plus its version. A
// deleted user keeps a tombstone record so versions keep counting.
type badgerRecord struct {
	Version int64           `json:"version"`
	Deleted bool            `json:"deleted,omitempty"`
	State   json.RawMessage `json:"state,omitempty"`
}

// OpenBadger opens (or creates) a Badger-backed repository.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(cfg.Logger)
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	s := &BadgerStore{db: db}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stopGC = make(chan struct{})
		s.doneGC = make(chan struct{})
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio, logger.OrNop(cfg.Logger))
	}
	return s, nil
}

func (s *BadgerStore) runGC(interval time.Duration, ratio float64, log *logger.Logger) {
	defer close(s.doneGC)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			if err := s.db.RunValueLogGC(ratio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				log.Warn("badger value log GC error", "error", err)
			}
		}
	}
}

// Close stops background GC and closes the database.
func (s *BadgerStore) Close() error {
	if s.stopGC != nil {
		close(s.stopGC)
		<-s.doneGC
	}
	return s.db.Close()
}

func badgerKey(userID string) []byte {
	return []byte("user/" + userID)
}

func (s *BadgerStore) Get(ctx context.Context, userID string) (*UserState, error) {
	var rec *badgerRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = readRecord(txn, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get user state: %w", err)
	}
	if rec == nil || rec.Deleted {
		return nil, nil
	}
	st, err := DecodeUserState(userID, rec.State)
	if err != nil {
		return nil, err
	}
	st.Version = rec.Version
	return st, nil
}

func (s *BadgerStore) Put(ctx context.Context, st *UserState) error {
	data, err := EncodeUserState(st)
	if err != nil {
		return err
	}
	next := st.Version + 1

	err = s.db.Update(func(txn *badger.Txn) error {
		cur, err := readRecord(txn, st.UserID)
		if err != nil {
			return err
		}
		var stored int64
		if cur != nil && !cur.Deleted {
			stored = cur.Version
		}
		if stored != st.Version {
			return ErrVersionConflict
		}
		if cur != nil && cur.Deleted {
			next = cur.Version + 1
		}
		b, err := json.Marshal(badgerRecord{Version: next, State: data})
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		return txn.Set(badgerKey(st.UserID), b)
	})
	if errors.Is(err, badger.ErrConflict) || errors.Is(err, ErrVersionConflict) {
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("save user state: %w", err)
	}
	st.Version = next
	return nil
}

func (s *BadgerStore) Delete(ctx context.Context, userID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		cur, err := readRecord(txn, userID)
		if err != nil || cur == nil || cur.Deleted {
			return err
		}
		b, err := json.Marshal(badgerRecord{Version: cur.Version + 1, Deleted: true})
		if err != nil {
			return fmt.Errorf("marshal tombstone: %w", err)
		}
		return txn.Set(badgerKey(userID), b)
	})
	if errors.Is(err, badger.ErrConflict) {
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("delete user state: %w", err)
	}
	return nil
}

func readRecord(txn *badger.Txn, userID string) (*badgerRecord, error) {
	item, err := txn.Get(badgerKey(userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec badgerRecord
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}
