package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// Store errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateURL    = errors.New("a remote client with this URL already exists")
	ErrWrongPassphrase = errors.New("wrong vault passphrase")
)

// Store provides SQLite persistence for console state.
type Store struct {
	db    *sql.DB
	mu    sync.RWMutex
	newID func() string
}

// Open opens the store at dbPath, creating the schema if needed.
// Use ":memory:" for an in-memory database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		PRAGMA foreign_keys = ON;
		PRAGMA journal_mode = WAL;
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &Store{db: db, newID: uuid.NewString}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS remote_clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		auth_mode TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'UNKNOWN',
		version TEXT NOT NULL DEFAULT '',
		added_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tokens (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		hub_url TEXT NOT NULL DEFAULT '',
		sealed BLOB NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vault (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		salt BLOB NOT NULL,
		check_value BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_remote_clients_name ON remote_clients(name);
	CREATE INDEX IF NOT EXISTS idx_tokens_name ON tokens(name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqlErr sqlite3.Error
	return errors.As(err, &sqlErr) &&
		(sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqlErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

// affected maps a write that matched no row to ErrNotFound.
func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
