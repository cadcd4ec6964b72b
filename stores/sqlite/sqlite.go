// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/mdhender/gradebook/model"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore is a SQLite-backed store for the gradebook tables.
// Reads run directly against the database; every write runs in its own transaction.
type SQLiteStore struct {
	*Queries
	db   *sql.DB
	path string
}

// StoreConfig holds configuration for creating a SQLiteStore.
type StoreConfig struct {
	// Path is the file path for file-based SQLite.
	// If empty, a private in-memory database is used.
	Path string

	// InitSchema controls whether to run schema initialization.
	// The schema is idempotent, so running it against an existing file is safe.
	InitSchema bool

	// CreateIfMissing creates and initializes the database file when it does not exist.
	CreateIfMissing bool
}

// NewSQLiteStore creates a new in-memory SQLite store with schema loaded.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(StoreConfig{InitSchema: true})
}

// NewSQLiteStoreWithConfig creates a SQLite store based on the provided configuration.
// For file-based mode the database file must already exist unless CreateIfMissing is set.
func NewSQLiteStoreWithConfig(cfg StoreConfig) (*SQLiteStore, error) {
	var dsn string

	if cfg.Path == "" {
		// each in-memory database is private to its connection, so the pool is pinned to one
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	} else {
		if _, err := os.Stat(cfg.Path); os.IsNotExist(err) {
			if !cfg.CreateIfMissing {
				return nil, fmt.Errorf("database file does not exist: %s (run init-db command to create it)", cfg.Path)
			}
			if err := InitDatabase(cfg.Path); err != nil {
				return nil, err
			}
		}
		dsn = fileDSN(cfg.Path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one connection serializes writers
	db.SetMaxOpenConns(1)

	if cfg.InitSchema || cfg.Path == "" {
		if _, err := db.Exec(schemaSQL); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec schema: %w", err)
		}
	}

	return &SQLiteStore{Queries: &Queries{db: db}, db: db, path: cfg.Path}, nil
}

// fileDSN applies PRAGMA's per-connection via DSN so the pool always has them.
// Transactions take the write lock when they begin.
func fileDSN(path string) string {
	return fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_txlock=immediate",
		path,
	)
}

// InitDatabase creates a new SQLite database file and initializes the schema.
// Returns an error if the file already exists.
func InitDatabase(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("database file already exists: %s", path)
	}

	db, err := sql.Open("sqlite", fileDSN(path))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("exec schema: %w", err)
	}

	return nil
}

// CompactDatabase compacts a SQLite database file by running VACUUM and checkpointing WAL.
func CompactDatabase(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", path)
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		path,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Checkpoint WAL to merge all changes into the main database file
	if _, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("checkpoint WAL: %w", err)
	}

	if _, err := db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path, or "" for an in-memory store.
func (s *SQLiteStore) Path() string {
	return s.path
}

// InTx runs fn as one unit of work. Any error returned by fn rolls back everything fn wrote.
// fn must use only the Queries it is given.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(q *Queries) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &model.ErrDatabase{Op: "begin", Err: err}
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(&Queries{db: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, &model.ErrDatabase{Op: "rollback", Err: rbErr})
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return &model.ErrDatabase{Op: "commit", Err: err}
	}
	return nil
}

// Insert adds a record and sets its ID.
func (s *SQLiteStore) Insert(ctx context.Context, rec model.Record) (id int64, err error) {
	err = s.InTx(ctx, func(q *Queries) error {
		id, err = q.Insert(ctx, rec)
		return err
	})
	return id, err
}

// Update applies f to the row and returns the updated record.
func (s *SQLiteStore) Update(ctx context.Context, kind model.Kind, id int64, f model.Fields) (rec model.Record, err error) {
	err = s.InTx(ctx, func(q *Queries) error {
		rec, err = q.Update(ctx, kind, id, f)
		return err
	})
	return rec, err
}

// Delete removes a row that nothing references.
func (s *SQLiteStore) Delete(ctx context.Context, kind model.Kind, id int64) error {
	return s.InTx(ctx, func(q *Queries) error {
		return q.Delete(ctx, kind, id)
	})
}

// DeleteCascade removes a row and every row that depends on it.
func (s *SQLiteStore) DeleteCascade(ctx context.Context, kind model.Kind, id int64) (removed map[model.Kind]int64, err error) {
	err = s.InTx(ctx, func(q *Queries) error {
		removed, err = q.DeleteCascade(ctx, kind, id)
		return err
	})
	return removed, err
}

// TableStats returns row counts for all tables.
func (s *SQLiteStore) TableStats(ctx context.Context) (model.Stats, error) {
	var stats model.Stats
	for _, t := range []struct {
		kind  model.Kind
		count *int64
	}{
		{model.KindGroup, &stats.Groups},
		{model.KindTeacher, &stats.Teachers},
		{model.KindStudent, &stats.Students},
		{model.KindSubject, &stats.Subjects},
		{model.KindScore, &stats.Scores},
	} {
		query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteTable(t.kind))
		if err := s.db.QueryRowContext(ctx, query).Scan(t.count); err != nil {
			return stats, dbError("count "+t.kind.Table(), err)
		}
	}
	return stats, nil
}

// dbError classifies a driver error. Constraint failures are integrity errors.
func dbError(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return &model.ErrIntegrity{Op: op, Msg: "constraint failed", Err: err}
	}
	return &model.ErrDatabase{Op: op, Err: err}
}

func quoteTable(kind model.Kind) string {
	return `"` + kind.Table() + `"`
}
