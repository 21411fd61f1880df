package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lubieowoce/overlappy/internal/motif"
)

func TestCSVWriter_WriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Flush())

	assert.Equal(t,
		"#pattern name,Family,sequence name,start,stop,strand,score,p-value,q-value,matched sequence\r\n",
		buf.String())
}

func TestCSVWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	r := &motif.Record{
		PatternName:     "MapolyY_B0017",
		Family:          "BBR-BPC",
		SequenceName:    "cle1",
		Start:           50,
		Stop:            65,
		Strand:          "-",
		Score:           14,
		PValue:          8.1e-06,
		QValue:          0.011,
		MatchedSequence: "TTGACGGATCCA",
	}
	require.NoError(t, w.Write(r))
	require.NoError(t, w.Flush())

	assert.Equal(t, "MapolyY_B0017,BBR-BPC,cle1,50,65,-,14.0,8.1e-06,0.011,TTGACGGATCCA\r\n", buf.String())
}

func TestCSVWriter_QuotesAndLF(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	w.SetCRLF(false)

	require.NoError(t, w.WriteAll([]*motif.Record{{
		PatternName:  "MA0001",
		Family:       "MADS,SRF",
		SequenceName: `chr"1"`,
		Start:        1,
		Stop:         2,
		Strand:       "+",
	}}))

	lines := bytes.Split(bytes.TrimSuffix(buf.Bytes(), []byte("\n")), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, `MA0001,"MADS,SRF","chr""1""",1,2,+,0.0,0.0,0.0,`, string(lines[1]))
}

func TestCSVWriter_MinimalQuoting(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	require.NoError(t, w.Write(&motif.Record{
		PatternName:     `\.`,
		Family:          " bZIP",
		SequenceName:    "\tchr1",
		Strand:          "line\nbreak",
		MatchedSequence: "ACGT\r",
	}))
	require.NoError(t, w.Flush())

	assert.Equal(t, "\\., bZIP,\tchr1,0,0,\"line\nbreak\",0.0,0.0,0.0,\"ACGT\r\"\r\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestCSVWriter_FlushError(t *testing.T) {
	w := NewCSVWriter(failingWriter{})
	require.NoError(t, w.WriteHeader())
	assert.EqualError(t, w.Flush(), "disk full")
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{14, "14.0"},
		{15.2, "15.2"},
		{-3.5, "-3.5"},
		{0.0031, "0.0031"},
		{0.0001, "0.0001"},
		{1e-05, "1e-05"},
		{5.0e-05, "5e-05"},
		{8.1e-06, "8.1e-06"},
		{1.2345e-10, "1.2345e-10"},
		{1e15, "1000000000000000.0"},
		{1e16, "1e+16"},
		{123456.789, "123456.789"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFloat(tt.in))
		})
	}
}
