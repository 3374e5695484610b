// Package badger provides the BadgerHold-backed quote cache and embedded subscription store.
package badger

import (
	"encoding/json"
	"fmt"
	"os"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/darshan15062002/stock-analysis/internal/common"
)

// Store wraps a BadgerHold database connection.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore creates a new BadgerHold store at the given directory path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create badger directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger

	return open(logger, options, path)
}

// NewMemoryStore creates a store that lives only in memory.
func NewMemoryStore(logger *common.Logger) (*Store, error) {
	options := badgerhold.DefaultOptions
	options.Options = badgerdb.DefaultOptions("").WithInMemory(true).WithLogger(nil)

	return open(logger, options, ":memory:")
}

func open(logger *common.Logger, options badgerhold.Options, path string) (*Store, error) {
	// JSON keeps free-form preference maps decodable
	options.Encoder = json.Marshal
	options.Decoder = json.Unmarshal

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", path).Msg("BadgerHold store opened")

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// DB returns the underlying badgerhold store.
func (s *Store) DB() *badgerhold.Store {
	return s.db
}

// Close closes the BadgerHold database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
