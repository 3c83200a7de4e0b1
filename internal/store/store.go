// Package store owns the SQLite database: schema, migrations, and every
// read and write the pipeline performs. Merge logic lives in SQL (upserts
// with COALESCE over excluded values), never in read-modify-write Go.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/catherinevee/boardmgr/internal/apperrors"
	"github.com/catherinevee/boardmgr/internal/logger"
)

// batchSize caps how many statements run inside one transaction.
const batchSize = 100

// Store wraps the SQLite connection.
type Store struct {
	db  *sql.DB
	log logger.Logger
	mu  sync.RWMutex
}

// Statement is one parameterised SQL statement queued for batched execution.
type Statement struct {
	SQL  string
	Args []interface{}
}

// Open opens (creating if needed) the database at path and bootstraps the
// base schema. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{
		db:  db,
		log: logger.New("store"),
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for read-only inspection in tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(baseSchema); err != nil {
		return fmt.Errorf("initialising schema: %w", err)
	}
	return nil
}

// ExecBatch runs statements in transactions of at most batchSize each. A
// statement failure rolls back its chunk and aborts.
func (s *Store) ExecBatch(ctx context.Context, stmts []Statement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for start := 0; start < len(stmts); start += batchSize {
		end := start + batchSize
		if end > len(stmts) {
			end = len(stmts)
		}
		if err := s.execChunk(ctx, stmts[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) execChunk(ctx context.Context, stmts []Statement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.Upsert, "store.ExecBatch", err)
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
			tx.Rollback()
			return apperrors.Wrap(apperrors.Upsert, "store.ExecBatch", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.Upsert, "store.ExecBatch", err)
	}
	return nil
}

func (s *Store) query(ctx context.Context, q string, args ...interface{}) (*sql.Rows, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.QueryContext(ctx, q, args...)
}

func (s *Store) queryRow(ctx context.Context, q string, args ...interface{}) *sql.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.QueryRowContext(ctx, q, args...)
}

func (s *Store) exec(ctx context.Context, q string, args ...interface{}) (sql.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.ExecContext(ctx, q, args...)
}
