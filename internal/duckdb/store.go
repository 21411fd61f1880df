// Package duckdb exports cleaning runs to a DuckDB database.
// Each run records the input file fingerprint and its kept and removed
// motif matches, so results of repeated runs can be queried side by side.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Match status values stored in motif_matches.status.
const (
	StatusKept    = "kept"
	StatusRemoved = "removed"
)

// Store manages a DuckDB connection for exported runs.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS run_ids START 1`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id BIGINT PRIMARY KEY,
			input_path VARCHAR,
			input_size BIGINT,
			input_mtime TIMESTAMP,
			created_at TIMESTAMP,
			n_input BIGINT,
			n_removed BIGINT,
			n_groups BIGINT,
			n_kept BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS motif_matches (
			run_id BIGINT,
			status VARCHAR,
			ordinal BIGINT,
			pattern_name VARCHAR,
			family VARCHAR,
			sequence_name VARCHAR,
			start BIGINT,
			stop BIGINT,
			strand VARCHAR,
			score DOUBLE,
			p_value DOUBLE,
			q_value DOUBLE,
			matched_sequence VARCHAR
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
