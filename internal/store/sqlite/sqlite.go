package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lu-zhengda/topsenders/internal/store"
)

const memoryDSN = ":memory:"

// DB is the run journal: one row per pipeline or mark run and one row per
// sender whose mail was marked within it. Mail itself is never stored.
type DB struct {
	db *sql.DB
}

var _ store.Journal = (*DB)(nil)

// New opens the journal at path, creating and upgrading the schema as
// needed. ":memory:" gives a private in-memory journal.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if path == memoryDSN {
		// A second connection would see an empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}

	j := &DB{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return j, nil
}

// dsn adds the driver options the journal relies on: cascading deletes need
// foreign keys, and WAL lets history read while a run is writing.
func dsn(path string) string {
	if path == memoryDSN {
		return memoryDSN + "?_foreign_keys=on"
	}
	return path + "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"
}

// schemaVersion reports how many migrations the file has seen.
func (j *DB) schemaVersion() (int, error) {
	var v int
	if err := j.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

func (j *DB) migrate() error {
	current, err := j.schemaVersion()
	if err != nil {
		return err
	}
	if current > len(migrations) {
		return fmt.Errorf("journal schema version %d is newer than this build supports (%d)", current, len(migrations))
	}

	for v := current; v < len(migrations); v++ {
		tx, err := j.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", v+1, err)
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d: %w", v+1, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", v+1, err)
		}
	}
	return nil
}

// Close closes the journal.
func (j *DB) Close() error {
	return j.db.Close()
}
