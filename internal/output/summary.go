package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/lubieowoce/overlappy/internal/motif"
)

// SummaryWriter writes an aligned per-group table of a cleaning run.
type SummaryWriter struct {
	w        *tabwriter.Writer
	groups   int
	matches  int
	clusters int
}

// NewSummaryWriter creates a new summary writer.
func NewSummaryWriter(w io.Writer) *SummaryWriter {
	return &SummaryWriter{
		w: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
	}
}

// WriteHeader writes the table header.
func (s *SummaryWriter) WriteHeader() error {
	_, err := fmt.Fprintln(s.w, "Pattern\tSequence\tMatches\tClusters\tCollapsed")
	return err
}

// WriteGroup writes one row for a (pattern, sequence) group.
func (s *SummaryWriter) WriteGroup(k motif.Key, matches, clusters int) error {
	s.groups++
	s.matches += matches
	s.clusters += clusters
	_, err := fmt.Fprintf(s.w, "%s\t%s\t%d\t%d\t%d\n",
		k.PatternName, k.SequenceName, matches, clusters, matches-clusters)
	return err
}

// Flush flushes the table.
func (s *SummaryWriter) Flush() error {
	return s.w.Flush()
}

// WriteTotals writes the overall counts below the table.
func (s *SummaryWriter) WriteTotals(w io.Writer, input, removed int) {
	fmt.Fprintf(w, "\nSummary:\n")
	fmt.Fprintf(w, "  Input matches:    %d\n", input)
	fmt.Fprintf(w, "  Low complexity:   %d\n", removed)
	fmt.Fprintf(w, "  Groups:           %d\n", s.groups)
	fmt.Fprintf(w, "  Collapsed:        %d\n", s.matches-s.clusters)
	fmt.Fprintf(w, "  Kept:             %d\n", s.clusters)
}
