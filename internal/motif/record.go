// Package motif provides the motif-match record and the predicates and
// groupings applied to it before overlap deduplication.
package motif

import (
	"fmt"
	"strings"
)

// Record is a single motif match reported by the scanner.
// Records are shared by pointer and must not be modified after construction.
type Record struct {
	PatternName     string
	Family          string
	SequenceName    string
	Start           int64
	Stop            int64
	Strand          string
	Score           float64
	PValue          float64
	QValue          float64
	MatchedSequence string
}

// Key identifies the (pattern, sequence) partition a record belongs to.
// Overlap is only ever considered between records with equal keys.
type Key struct {
	PatternName  string
	SequenceName string
}

func (k Key) String() string {
	return k.PatternName + "/" + k.SequenceName
}

// NewRecord builds a record, normalizing the matched sequence to upper case.
func NewRecord(pattern, family, sequence string, start, stop int64, strand string, score, pValue, qValue float64, matched string) (*Record, error) {
	if start > stop {
		return nil, fmt.Errorf("start %d is after stop %d", start, stop)
	}
	return &Record{
		PatternName:     pattern,
		Family:          family,
		SequenceName:    sequence,
		Start:           start,
		Stop:            stop,
		Strand:          strand,
		Score:           score,
		PValue:          pValue,
		QValue:          qValue,
		MatchedSequence: strings.ToUpper(matched),
	}, nil
}

// Key returns the grouping key of the record.
func (r *Record) Key() Key {
	return Key{PatternName: r.PatternName, SequenceName: r.SequenceName}
}

// Len returns the number of positions covered by the closed range [Start, Stop].
func (r *Record) Len() int64 {
	return r.Stop - r.Start + 1
}

// IsLowComplexity reports whether the record's matched sequence is a trivial repeat.
func (r *Record) IsLowComplexity() bool {
	return IsLowComplexity(r.MatchedSequence)
}

func (r *Record) String() string {
	return fmt.Sprintf("%s %s:%d-%d(%s) p=%g", r.PatternName, r.SequenceName, r.Start, r.Stop, r.Strand, r.PValue)
}
