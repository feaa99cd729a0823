// Package store is the SQL-backed profile database of the banking demo:
// accounts, credit cards, recipients and the transaction ledger.
//
// Every conversation session owns one account. Accounts are created on first
// use and filled with demo data (cards, recipients and a year of spending and
// income) generated from a seed, so the same session always sees the same
// profile. Money movements run inside a single SQL transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"bankbot/internal/logging"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrCardNotFound       = errors.New("credit card not found")
	ErrRecipientNotFound  = errors.New("recipient not found")
	ErrVendorNotFound     = errors.New("vendor not found")
	ErrVendorExists       = errors.New("vendor already exists")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrUnknownBalanceType = errors.New("unknown balance type")
	ErrInvalidAmount      = errors.New("amount must be positive")
)

// DefaultDriver is the pure Go SQLite driver, available in every build.
const DefaultDriver = "sqlite"

// Store is the profile database.
type Store struct {
	db          *sql.DB
	driver      string
	path        string
	now         func() time.Time
	seed        int64
	historyDays int

	// Serialises account creation so two turns of a new session cannot
	// populate it twice.
	mu sync.Mutex
}

// Option customises a Store.
type Option func(*Store)

// WithClock sets the clock used for transaction timestamps and generated
// history.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSeed sets the demo data seed.
func WithSeed(seed int64) Option {
	return func(s *Store) { s.seed = seed }
}

// WithHistoryDays sets how far back generated transactions reach.
func WithHistoryDays(days int) Option {
	return func(s *Store) {
		if days > 0 {
			s.historyDays = days
		}
	}
}

// querier is satisfied by *sql.DB and *sql.Tx. The pool holds a single
// connection, so code running inside a transaction must only use the Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (creating if needed) the profile database at path using the
// named driver ("sqlite", or "sqlite3" in cgo builds). Use ":memory:" for a
// throwaway database.
func Open(ctx context.Context, driver, path string, opts ...Option) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if driver == "" {
		driver = DefaultDriver
	}
	if !slices.Contains(sql.Drivers(), driver) {
		return nil, fmt.Errorf("sql driver %q is not available in this build (have %v)", driver, sql.Drivers())
	}

	logging.Store("Opening profile store at %s (driver=%s)", path, driver)
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			logging.StoreDebug("Failed to apply %q: %v", pragma, err)
		}
	}

	s := &Store{
		db:          db,
		driver:      driver,
		path:        path,
		now:         time.Now,
		seed:        42,
		historyDays: 365,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logging.StoreDebug("Profile store ready")
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// Driver returns the SQL driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

// withTx runs fn in a transaction, committing if it returns nil.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.StoreWarn("Rollback failed: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
