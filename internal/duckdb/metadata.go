package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// RunCounts are the per-run totals stored alongside the fingerprint.
type RunCounts struct {
	Input   int
	Removed int
	Groups  int
	Kept    int
}

// Run is a row of the runs table.
type Run struct {
	ID        int64
	Input     FileFingerprint
	CreatedAt time.Time
	Counts    RunCounts
}

// CreateRun inserts a new run and returns its id.
func (s *Store) CreateRun(fp FileFingerprint, counts RunCounts) (int64, error) {
	var id int64
	if err := s.db.QueryRow(`SELECT nextval('run_ids')`).Scan(&id); err != nil {
		return 0, fmt.Errorf("allocate run id: %w", err)
	}

	_, err := s.db.Exec(`INSERT INTO runs
		(run_id, input_path, input_size, input_mtime, created_at, n_input, n_removed, n_groups, n_kept)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, fp.Path, fp.Size, dbTime(fp.ModTime), dbTime(time.Now()),
		counts.Input, counts.Removed, counts.Groups, counts.Kept)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// GetRun returns the run with the given id, or nil if there is none.
func (s *Store) GetRun(id int64) (*Run, error) {
	var r Run
	err := s.db.QueryRow(`SELECT run_id, input_path, input_size, input_mtime, created_at,
		n_input, n_removed, n_groups, n_kept FROM runs WHERE run_id = ?`, id).Scan(
		&r.ID, &r.Input.Path, &r.Input.Size, &r.Input.ModTime, &r.CreatedAt,
		&r.Counts.Input, &r.Counts.Removed, &r.Counts.Groups, &r.Counts.Kept)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	return &r, nil
}

// FindRunsByInput returns the ids of runs over an identical input file,
// oldest first.
func (s *Store) FindRunsByInput(fp FileFingerprint) ([]int64, error) {
	rows, err := s.db.Query(`SELECT run_id FROM runs
		WHERE input_path = ? AND input_size = ? AND input_mtime = ?
		ORDER BY run_id`, fp.Path, fp.Size, dbTime(fp.ModTime))
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// dbTime truncates t to the microsecond precision of a DuckDB TIMESTAMP.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
