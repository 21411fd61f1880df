// Package fimo provides parsing of tab-separated motif scanner output
// (FIMO-style, with an extra Family column).
package fimo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/lubieowoce/overlappy/internal/motif"
)

// Column names as written by the scanner.
const (
	ColPatternName     = "pattern name"
	ColFamily          = "Family"
	ColSequenceName    = "sequence name"
	ColStrand          = "strand"
	ColStart           = "start"
	ColStop            = "stop"
	ColScore           = "score"
	ColPValue          = "p-value"
	ColQValue          = "q-value"
	ColMatchedSequence = "matched sequence"
)

// ColumnIndices holds the indices of the required columns.
type ColumnIndices struct {
	PatternName     int
	Family          int
	SequenceName    int
	Strand          int
	Start           int
	Stop            int
	Score           int
	PValue          int
	QValue          int
	MatchedSequence int
}

// Parser reads motif match records from a TSV file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	columns    ColumnIndices
	headerLine string
}

// NewParser creates a new parser for the given file.
// Supports both plain and gzipped (.tsv.gz) input; "-" reads stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open motif file: %w", err)
	}

	p := &Parser{file: file}
	br := bufio.NewReader(file)

	// Check for gzip magic number (0x1f, 0x8b)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = br
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// readLine returns the next line without its terminator.
// It returns io.EOF only when no more data is available.
func (p *Parser) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if err != io.EOF || line == "" {
			return "", err
		}
	}
	p.lineNumber++
	return strings.TrimRight(line, "\r\n"), nil
}

// parseHeader reads the first non-empty line and locates the columns.
// The header itself usually starts with '#' ("#pattern name").
func (p *Parser) parseHeader() error {
	for {
		line, err := p.readLine()
		if err != nil {
			if err == io.EOF {
				return &ParseError{
					Line:    p.lineNumber,
					Message: "no header line found",
				}
			}
			return fmt.Errorf("read header: %w", err)
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		p.headerLine = line
		return p.parseColumnIndices(line)
	}
}

// parseColumnIndices parses the header line to find column indices.
func (p *Parser) parseColumnIndices(headerLine string) error {
	columns := strings.Split(headerLine, "\t")

	p.columns = ColumnIndices{
		PatternName:     -1,
		Family:          -1,
		SequenceName:    -1,
		Strand:          -1,
		Start:           -1,
		Stop:            -1,
		Score:           -1,
		PValue:          -1,
		QValue:          -1,
		MatchedSequence: -1,
	}

	for i, col := range columns {
		switch strings.TrimPrefix(col, "#") {
		case ColPatternName:
			p.columns.PatternName = i
		case ColFamily:
			p.columns.Family = i
		case ColSequenceName:
			p.columns.SequenceName = i
		case ColStrand:
			p.columns.Strand = i
		case ColStart:
			p.columns.Start = i
		case ColStop:
			p.columns.Stop = i
		case ColScore:
			p.columns.Score = i
		case ColPValue:
			p.columns.PValue = i
		case ColQValue:
			p.columns.QValue = i
		case ColMatchedSequence:
			p.columns.MatchedSequence = i
		}
	}

	required := []struct {
		name string
		idx  int
	}{
		{ColPatternName, p.columns.PatternName},
		{ColFamily, p.columns.Family},
		{ColSequenceName, p.columns.SequenceName},
		{ColStrand, p.columns.Strand},
		{ColStart, p.columns.Start},
		{ColStop, p.columns.Stop},
		{ColScore, p.columns.Score},
		{ColPValue, p.columns.PValue},
		{ColQValue, p.columns.QValue},
		{ColMatchedSequence, p.columns.MatchedSequence},
	}
	for _, c := range required {
		if c.idx == -1 {
			return &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("required column '%s' not found in header", c.name),
			}
		}
	}

	return nil
}

// Next reads the next record.
// Returns nil, nil when there are no more records.
func (p *Parser) Next() (*motif.Record, error) {
	for {
		line, err := p.readLine()
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read motif line: %w", err)
		}

		// Skip empty lines and trailing comments (FIMO appends
		// "# FIMO (Find Individual Motif Occurrences) ..." lines).
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		return p.parseLine(line)
	}
}

// ReadAll reads every remaining record. It stops at the first error.
func (p *Parser) ReadAll() ([]*motif.Record, error) {
	var records []*motif.Record
	for {
		r, err := p.Next()
		if err != nil {
			return nil, err
		}
		if r == nil {
			return records, nil
		}
		records = append(records, r)
	}
}

// parseLine parses a single data line into a Record.
func (p *Parser) parseLine(line string) (*motif.Record, error) {
	fields := strings.Split(line, "\t")

	c := p.columns
	minCols := max(c.PatternName, c.Family, c.SequenceName, c.Strand, c.Start,
		c.Stop, c.Score, c.PValue, c.QValue, c.MatchedSequence)
	if len(fields) <= minCols {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", minCols+1, len(fields)),
		}
	}

	start, err := p.parseInt(fields[c.Start], ColStart)
	if err != nil {
		return nil, err
	}
	stop, err := p.parseInt(fields[c.Stop], ColStop)
	if err != nil {
		return nil, err
	}
	score, err := p.parseFloat(fields[c.Score], ColScore)
	if err != nil {
		return nil, err
	}
	pValue, err := p.parseFloat(fields[c.PValue], ColPValue)
	if err != nil {
		return nil, err
	}
	qValue, err := p.parseFloat(fields[c.QValue], ColQValue)
	if err != nil {
		return nil, err
	}

	r, err := motif.NewRecord(
		fields[c.PatternName],
		fields[c.Family],
		fields[c.SequenceName],
		start, stop,
		fields[c.Strand],
		score, pValue, qValue,
		fields[c.MatchedSequence],
	)
	if err != nil {
		return nil, &ParseError{Line: p.lineNumber, Message: err.Error()}
	}
	return r, nil
}

func (p *Parser) parseInt(s, col string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid %s: %q", col, s),
		}
	}
	return v, nil
}

func (p *Parser) parseFloat(s, col string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid %s: %q", col, s),
		}
	}
	return v, nil
}

// Header returns the header line.
func (p *Parser) Header() string {
	return p.headerLine
}

// Columns returns the parsed column indices.
func (p *Parser) Columns() ColumnIndices {
	return p.columns
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("motif parse error at line %d: %s", e.Line, e.Message)
}

// ReadFile parses every record of the file at path.
func ReadFile(path string) ([]*motif.Record, error) {
	p, err := NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.ReadAll()
}
