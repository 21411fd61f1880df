// Package output provides motif record output formatters.
package output

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/lubieowoce/overlappy/internal/motif"
)

// Columns is the fixed header of both the cleaned and the removed output.
var Columns = []string{
	"#pattern name",
	"Family",
	"sequence name",
	"start",
	"stop",
	"strand",
	"score",
	"p-value",
	"q-value",
	"matched sequence",
}

// CSVWriter writes motif records as comma-separated rows. Fields are quoted
// only when they contain a comma, a double quote, CR or LF, so passthrough
// columns with leading spaces are written bare.
type CSVWriter struct {
	w       *bufio.Writer
	newline string
	err     error
}

// NewCSVWriter creates a new CSV writer. Lines end in CRLF.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: bufio.NewWriter(w), newline: "\r\n"}
}

// SetCRLF selects CRLF (true) or LF (false) line endings.
func (cw *CSVWriter) SetCRLF(crlf bool) {
	if crlf {
		cw.newline = "\r\n"
	} else {
		cw.newline = "\n"
	}
}

// WriteHeader writes the header line.
func (cw *CSVWriter) WriteHeader() error {
	return cw.writeRow(Columns)
}

// Write writes a single record.
func (cw *CSVWriter) Write(r *motif.Record) error {
	return cw.writeRow([]string{
		r.PatternName,
		r.Family,
		r.SequenceName,
		strconv.FormatInt(r.Start, 10),
		strconv.FormatInt(r.Stop, 10),
		r.Strand,
		FormatFloat(r.Score),
		FormatFloat(r.PValue),
		FormatFloat(r.QValue),
		r.MatchedSequence,
	})
}

// WriteAll writes the header, every record and flushes.
func (cw *CSVWriter) WriteAll(records []*motif.Record) error {
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// Flush writes any buffered data and returns the first write error.
func (cw *CSVWriter) Flush() error {
	if cw.err != nil {
		return cw.err
	}
	cw.err = cw.w.Flush()
	return cw.err
}

func (cw *CSVWriter) writeRow(fields []string) error {
	if cw.err != nil {
		return cw.err
	}
	for i, f := range fields {
		if i > 0 {
			cw.w.WriteByte(',')
		}
		if needsQuotes(f) {
			cw.w.WriteByte('"')
			cw.w.WriteString(strings.ReplaceAll(f, `"`, `""`))
			cw.w.WriteByte('"')
		} else {
			cw.w.WriteString(f)
		}
	}
	_, cw.err = cw.w.WriteString(cw.newline)
	return cw.err
}

func needsQuotes(f string) bool {
	return strings.ContainsAny(f, ",\"\r\n")
}

// FormatFloat renders f as the shortest string that round-trips, using
// fixed notation with at least one fractional digit ("14.0", "0.0031")
// when the decimal exponent is in [-4, 16) and scientific notation
// ("8.1e-06", "1e+16") otherwise.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err == nil && (exp < -4 || exp >= 16) {
		return sci
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
