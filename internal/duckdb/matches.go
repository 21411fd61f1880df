package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/lubieowoce/overlappy/internal/motif"
)

// WriteMatches batch-inserts records under runID with the given status using
// the Appender API. The ordinal column preserves the slice order.
func (s *Store) WriteMatches(runID int64, status string, records []*motif.Record) error {
	if len(records) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "motif_matches")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for i, r := range records {
		if err := appender.AppendRow(
			runID, status, int64(i),
			r.PatternName, r.Family, r.SequenceName,
			r.Start, r.Stop, r.Strand,
			r.Score, r.PValue, r.QValue,
			r.MatchedSequence,
		); err != nil {
			return fmt.Errorf("append motif match: %w", err)
		}
	}

	return appender.Flush()
}

// LookupMatches returns the records stored under runID with the given
// status, in their original order.
func (s *Store) LookupMatches(runID int64, status string) ([]*motif.Record, error) {
	rows, err := s.db.Query(`SELECT
		pattern_name, family, sequence_name, start, stop, strand,
		score, p_value, q_value, matched_sequence
		FROM motif_matches
		WHERE run_id=? AND status=?
		ORDER BY ordinal`,
		runID, status)
	if err != nil {
		return nil, fmt.Errorf("query motif matches: %w", err)
	}
	defer rows.Close()

	var records []*motif.Record
	for rows.Next() {
		var r motif.Record
		if err := rows.Scan(
			&r.PatternName, &r.Family, &r.SequenceName, &r.Start, &r.Stop, &r.Strand,
			&r.Score, &r.PValue, &r.QValue, &r.MatchedSequence,
		); err != nil {
			return nil, fmt.Errorf("scan motif match: %w", err)
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate motif matches: %w", err)
	}
	return records, nil
}

// CountMatches returns the number of records stored under runID with the
// given status.
func (s *Store) CountMatches(runID int64, status string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT count(*) FROM motif_matches WHERE run_id=? AND status=?`,
		runID, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count motif matches: %w", err)
	}
	return n, nil
}

// ClearRuns removes all exported runs and their matches.
func (s *Store) ClearRuns() error {
	if _, err := s.db.Exec("DELETE FROM motif_matches"); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM runs")
	return err
}

// ExportRun stores a complete run: its fingerprint and counts, then the kept
// and removed records. It returns the new run id.
func (s *Store) ExportRun(fp FileFingerprint, counts RunCounts, kept, removed []*motif.Record) (int64, error) {
	id, err := s.CreateRun(fp, counts)
	if err != nil {
		return 0, err
	}
	if err := s.WriteMatches(id, StatusKept, kept); err != nil {
		return 0, err
	}
	if err := s.WriteMatches(id, StatusRemoved, removed); err != nil {
		return 0, err
	}
	return id, nil
}
