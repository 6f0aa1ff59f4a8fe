// Package storage persists resolved unit rates in BadgerDB.
//
// The in-memory cache in pkg/cache is lost when the process exits. For the
// long-running server, and for repeated CLI runs against the same tables,
// RateStore keeps rates on disk so a restart starts warm.
//
// Key Structure:
//   - Rate: 0x10 + fingerprint + 0x00 + from + 0x00 + to -> 8-byte IEEE-754
//
// The fingerprint is unitgraph.Fingerprint of the graph the rate came from.
// A table edit changes the fingerprint, which makes every old key
// unreachable; PurgeStale deletes them.
//
// Example:
//
//	store, err := storage.Open(storage.Options{DataDir: "./data/rates"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	fp := unitgraph.Fingerprint(g)
//	resolver := unitgraph.NewResolver(g, unitgraph.WithRateCache(store.ForGraph(fp, logger)))
package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes for BadgerDB storage organization.
const (
	prefixRate = byte(0x10) // rate:fingerprint:from:to -> float64
)

// ErrStoreClosed is returned by every operation after Close.
var ErrStoreClosed = errors.New("rate store closed")

// Options configures the rate store.
type Options struct {
	// DataDir is the directory for the Badger files. Ignored when InMemory.
	DataDir string

	// InMemory keeps everything in RAM. Useful for tests.
	InMemory bool

	// SyncWrites forces fsync after each write.
	SyncWrites bool

	// Logger receives Badger's internal logging. Nil keeps Badger quiet.
	Logger badger.Logger
}

// RateStore is a persistent map from (fingerprint, from, to) to a rate.
//
// Thread Safety:
//
//	Safe for concurrent use from multiple goroutines.
type RateStore struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) a rate store.
func Open(opts Options) (*RateStore, error) {
	dir := opts.DataDir
	if opts.InMemory {
		dir = ""
	}
	badgerOpts := badger.DefaultOptions(dir).
		WithInMemory(opts.InMemory).
		WithSyncWrites(opts.SyncWrites).
		WithLogger(opts.Logger)

	// Rates are tiny; keep Badger's footprint small.
	badgerOpts = badgerOpts.
		WithMemTableSize(8 << 20).
		WithValueLogFileSize(16 << 20).
		WithNumMemtables(2).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4).
		WithBlockCacheSize(8 << 20).
		WithIndexCacheSize(4 << 20)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	return &RateStore{db: db}, nil
}

// OpenInMemory opens a store that lives only in memory.
func OpenInMemory() (*RateStore, error) {
	return Open(Options{InMemory: true})
}

func fingerprintPrefix(fingerprint string) []byte {
	key := make([]byte, 0, 2+len(fingerprint))
	key = append(key, prefixRate)
	key = append(key, fingerprint...)
	return append(key, 0x00)
}

func rateKey(fingerprint, from, to string) []byte {
	key := fingerprintPrefix(fingerprint)
	key = append(key, from...)
	key = append(key, 0x00)
	return append(key, to...)
}

// fingerprintFromKey extracts the fingerprint from a rate key.
func fingerprintFromKey(key []byte) (string, bool) {
	if len(key) < 2 || key[0] != prefixRate {
		return "", false
	}
	end := bytes.IndexByte(key[1:], 0x00)
	if end < 0 {
		return "", false
	}
	return string(key[1 : 1+end]), true
}

func encodeRate(rate float64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(rate))
	return buf[:]
}

func decodeRate(val []byte) (float64, error) {
	if len(val) != 8 {
		return 0, fmt.Errorf("corrupt rate value: %d bytes", len(val))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(val)), nil
}

func (s *RateStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Get returns the stored rate for from→to under fingerprint.
// A missing key is (0, false, nil).
func (s *RateStore) Get(fingerprint, from, to string) (float64, bool, error) {
	if err := s.checkOpen(); err != nil {
		return 0, false, err
	}

	var (
		rate  float64
		found bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(rateKey(fingerprint, from, to))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var decodeErr error
			rate, decodeErr = decodeRate(val)
			found = decodeErr == nil
			return decodeErr
		})
	})
	return rate, found, err
}

// Put stores a rate for from→to under fingerprint.
func (s *RateStore) Put(fingerprint, from, to string, rate float64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(rateKey(fingerprint, from, to), encodeRate(rate))
	})
}

// Count returns the number of rates stored under fingerprint.
func (s *RateStore) Count(fingerprint string) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	prefix := fingerprintPrefix(fingerprint)
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Fingerprints lists every fingerprint that has stored rates.
func (s *RateStore) Fingerprints() ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var fps []string
	seen := map[string]bool{}
	prefix := []byte{prefixRate}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			fp, ok := fingerprintFromKey(it.Item().Key())
			if ok && !seen[fp] {
				seen[fp] = true
				fps = append(fps, fp)
			}
		}
		return nil
	})
	return fps, err
}

// Purge deletes every rate stored under fingerprint.
func (s *RateStore) Purge(fingerprint string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	prefix := fingerprintPrefix(fingerprint)
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// PurgeStale deletes rates of every fingerprint except keep and returns how
// many fingerprints were dropped.
func (s *RateStore) PurgeStale(keep string) (int, error) {
	fps, err := s.Fingerprints()
	if err != nil {
		return 0, err
	}
	dropped := 0
	for _, fp := range fps {
		if fp == keep {
			continue
		}
		if err := s.Purge(fp); err != nil {
			return dropped, fmt.Errorf("purging %s: %w", fp, err)
		}
		dropped++
	}
	return dropped, nil
}

// Close closes the underlying database. Closing twice is a no-op.
func (s *RateStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// GraphRates binds a RateStore to one graph fingerprint and satisfies
// unitgraph.RateCache. Storage errors are logged and treated as misses so a
// broken store never breaks conversion.
type GraphRates struct {
	store       *RateStore
	fingerprint string
	logger      *slog.Logger
}

// ForGraph returns the cache view of the store for one graph.
func (s *RateStore) ForGraph(fingerprint string, logger *slog.Logger) *GraphRates {
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphRates{store: s, fingerprint: fingerprint, logger: logger}
}

// GetRate implements unitgraph.RateCache.
func (g *GraphRates) GetRate(from, to string) (float64, bool) {
	rate, ok, err := g.store.Get(g.fingerprint, from, to)
	if err != nil {
		g.logger.Warn("rate store read failed",
			slog.String("from", from), slog.String("to", to), slog.Any("error", err))
		return 0, false
	}
	return rate, ok
}

// PutRate implements unitgraph.RateCache.
func (g *GraphRates) PutRate(from, to string, rate float64) {
	if err := g.store.Put(g.fingerprint, from, to, rate); err != nil {
		g.logger.Warn("rate store write failed",
			slog.String("from", from), slog.String("to", to), slog.Any("error", err))
	}
}
