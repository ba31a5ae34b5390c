package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

const keyPrefix = "draft:"

// BadgerOption adjusts a BadgerStore before the database opens.
type BadgerOption func(*BadgerStore)

// WithInMemory keeps the whole database in memory. Drafts vanish on Close;
// mostly useful in tests.
func WithInMemory() BadgerOption {
	return func(s *BadgerStore) {
		s.inMemory = true
	}
}

// WithSyncWrites controls whether every save waits for the write-ahead log
// to reach disk. On by default; turning it off trades durability for speed.
func WithSyncWrites(sync bool) BadgerOption {
	return func(s *BadgerStore) {
		s.syncWrites = sync
	}
}

// WithBadgerLogger sets the logger for store and database events. The default
// logger discards everything.
func WithBadgerLogger(logger *slog.Logger) BadgerOption {
	return func(s *BadgerStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGC sets the value-log garbage collection cadence. A zero interval
// disables the background pass; ratio is the fraction of discardable data
// that makes rewriting a log file worthwhile.
func WithGC(interval time.Duration, ratio float64) BadgerOption {
	return func(s *BadgerStore) {
		s.gcInterval = interval
		if ratio > 0 && ratio <= 1 {
			s.gcRatio = ratio
		}
	}
}

// BadgerStore persists drafts in an embedded badger database, one JSON value
// per form under a "draft:" key. A background goroutine garbage-collects the
// value log until Close.
type BadgerStore struct {
	db         *badger.DB
	logger     *slog.Logger
	inMemory   bool
	syncWrites bool
	gcInterval time.Duration
	gcRatio    float64

	stopGC    chan struct{}
	doneGC    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewBadgerStore opens the database in dir, creating the directory when
// needed. The caller owns the store and must Close it.
func NewBadgerStore(dir string, opts ...BadgerOption) (*BadgerStore, error) {
	s := &BadgerStore{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		syncWrites: true,
		gcInterval: 5 * time.Minute,
		gcRatio:    0.5,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	var bopts badger.Options
	if s.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if dir == "" {
			return nil, errors.New("draft: badger store needs a directory")
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("draft: create store directory: %w", err)
		}
		bopts = badger.DefaultOptions(dir)
	}
	bopts = bopts.WithSyncWrites(s.syncWrites).WithLogger(badgerLogger{s.logger})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("draft: open badger store: %w", err)
	}
	s.db = db

	// An in-memory database has no value log files to collect.
	if s.gcInterval > 0 && !s.inMemory {
		s.stopGC = make(chan struct{})
		s.doneGC = make(chan struct{})
		go s.runGC()
	}
	return s, nil
}

// Save writes the draft as JSON under its FormID.
func (s *BadgerStore) Save(ctx context.Context, d Draft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.FormID == "" {
		return errors.New("draft: missing form id")
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("draft: encode %s: %w", d.FormID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storeKey(d.FormID), payload)
	})
	if err != nil {
		return fmt.Errorf("draft: save %s: %w", d.FormID, err)
	}
	s.logger.Debug("draft: saved", "form", d.FormID, "bytes", len(payload))
	return nil
}

// Load reads and decodes the draft for formID.
func (s *BadgerStore) Load(ctx context.Context, formID string) (Draft, error) {
	if err := ctx.Err(); err != nil {
		return Draft{}, err
	}
	var d Draft
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey(formID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &d)
		})
	})
	if errors.Is(err, ErrNotFound) {
		return Draft{}, ErrNotFound
	}
	if err != nil {
		return Draft{}, fmt.Errorf("draft: load %s: %w", formID, err)
	}
	return d, nil
}

// Delete removes the draft for formID.
func (s *BadgerStore) Delete(ctx context.Context, formID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(storeKey(formID))
	})
	if err != nil {
		return fmt.Errorf("draft: delete %s: %w", formID, err)
	}
	return nil
}

// List scans the draft keyspace and returns the form ids, sorted.
func (s *BadgerStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := []byte(keyPrefix)
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			ids = append(ids, string(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("draft: list: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close stops the garbage collector and closes the database. Safe to call
// more than once.
func (s *BadgerStore) Close() error {
	s.closeOnce.Do(func() {
		if s.stopGC != nil {
			close(s.stopGC)
			<-s.doneGC
		}
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

func (s *BadgerStore) runGC() {
	defer close(s.doneGC)

	ticker := time.NewTicker(s.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(s.gcRatio)
			switch {
			case err == nil:
				s.logger.Debug("draft: badger gc rewrote a value log file")
			case errors.Is(err, badger.ErrNoRewrite):
				// Nothing worth collecting this round.
			default:
				s.logger.Warn("draft: badger gc", "error", err)
			}
		}
	}
}

func storeKey(formID string) []byte {
	return []byte(keyPrefix + formID)
}

// badgerLogger forwards badger's internal logging to slog. Badger terminates
// its lines with newlines, which slog does not want.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error("draft: badger: " + strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn("draft: badger: " + strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Info("draft: badger: " + strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug("draft: badger: " + strings.TrimSpace(fmt.Sprintf(format, args...)))
}
