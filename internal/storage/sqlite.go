package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// NewSQLiteStorage opens (or creates) a SQLite-backed Storage at the
// given path and applies the embedded schema. Use ":memory:" for an
// ephemeral database.
func NewSQLiteStorage(path string) (*SQLStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// modernc's driver is not safe for concurrent writes on one file.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	s := &SQLStorage{db: db, d: dialect{
		name:       "sqlite",
		positional: false,
		uniqueViolation: func(err error) bool {
			return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
		},
	}}

	if err := s.initializeSchema("migrations_sqlite.sql"); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}
	return s, nil
}
