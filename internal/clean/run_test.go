package clean

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lubieowoce/overlappy/internal/duckdb"
	"github.com/lubieowoce/overlappy/internal/fimo"
	"github.com/lubieowoce/overlappy/internal/motif"
)

func TestRemovedPath(t *testing.T) {
	tests := []struct {
		out, suffix, want string
	}{
		{"out.csv", "", "out-removed.csv"},
		{"dir/fimo.clean.csv", "", "dir/fimo.clean-removed.csv"},
		{"a.csv.d/out.csv", "", "a.csv.d/out-removed.csv"},
		{"out.csv", "_lowcomplexity", "out_lowcomplexity.csv"},
	}
	for _, tt := range tests {
		got, err := RemovedPath(tt.out, tt.suffix)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestRemovedPath_BadExtension(t *testing.T) {
	for _, out := range []string{"out.tsv", "out.CSV", "out", ""} {
		_, err := RemovedPath(out, "")
		assert.True(t, errors.Is(err, ErrBadOutputExt), out)
	}
}

func TestRun_MatchesReferenceOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "sample_clean.csv")

	res, err := NewCleaner().Run(Options{
		InputPath:  findTestFile(t, "sample.tsv"),
		OutputPath: out,
	})
	require.NoError(t, err)
	assert.Equal(t, Stats{Input: 8, Removed: 2, Groups: 3, Clusters: 4, Kept: 4}, res.Stats)

	assertSameFile(t, findTestFile(t, "sample_clean.csv"), out)
	assertSameFile(t, findTestFile(t, "sample_clean-removed.csv"), filepath.Join(dir, "sample_clean-removed.csv"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary files left behind")
}

func TestRun_GzipInput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "sample_clean.csv")

	_, err := NewCleaner().Run(Options{
		InputPath:  findTestFile(t, "sample.tsv.gz"),
		OutputPath: out,
	})
	require.NoError(t, err)
	assertSameFile(t, findTestFile(t, "sample_clean.csv"), out)
}

func TestRun_Idempotent(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.csv")
	_, err := NewCleaner().Run(Options{InputPath: findTestFile(t, "sample.tsv"), OutputPath: first})
	require.NoError(t, err)

	// Re-read the cleaned output as scanner input.
	records, err := readCSVAsTSV(t, first)
	require.NoError(t, err)

	again := NewCleaner().Clean(records)
	assert.Empty(t, again.Removed)
	assert.Equal(t, records, again.Kept)
}

func TestRun_ParseErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")

	_, err := NewCleaner().Run(Options{
		InputPath:  findTestFile(t, "bad_start.tsv"),
		OutputPath: out,
	})
	var perr *fimo.ParseError
	require.True(t, errors.As(err, &perr), "got %v", err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_BadExtensionBeforeIO(t *testing.T) {
	dir := t.TempDir()

	// The input does not exist; the extension check must fail first.
	_, err := NewCleaner().Run(Options{
		InputPath:  filepath.Join(dir, "missing.tsv"),
		OutputPath: filepath.Join(dir, "out.tsv"),
	})
	assert.True(t, errors.Is(err, ErrBadOutputExt))
}

func TestRun_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := NewCleaner().Run(Options{
		InputPath:  filepath.Join(dir, "missing.tsv"),
		OutputPath: filepath.Join(dir, "out.csv"),
	})
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRemovedPath_SuffixWithSeparator(t *testing.T) {
	for _, suffix := range []string{"/removed", "../x", "a/b"} {
		_, err := RemovedPath("out.csv", suffix)
		assert.True(t, errors.Is(err, ErrBadRemovedSuffix), suffix)
	}
}

func TestRun_SamePaths(t *testing.T) {
	_, err := NewCleaner().Run(Options{InputPath: "x.csv", OutputPath: "x.csv"})
	assert.True(t, errors.Is(err, ErrSamePath))

	_, err = NewCleaner().Run(Options{InputPath: "./out.csv", OutputPath: "out.csv"})
	assert.True(t, errors.Is(err, ErrSamePath))

	_, err = NewCleaner().Run(Options{InputPath: "sub/../out-removed.csv", OutputPath: "out.csv"})
	assert.True(t, errors.Is(err, ErrSamePath))

	_, err = NewCleaner().Run(Options{})
	assert.Error(t, err)
}

func TestRun_RemovedRenameFailsLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")
	blocker := filepath.Join(dir, "out-removed.csv")
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "x"), 0755))

	for i := 0; i < 10; i++ {
		_, err := NewCleaner().Run(Options{InputPath: findTestFile(t, "sample.tsv"), OutputPath: out})
		require.Error(t, err)

		_, err = os.Stat(out)
		assert.True(t, errors.Is(err, os.ErrNotExist), "cleaned output must not be left behind")

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	}
}

func TestRun_OutputRenameFailsRestoresRemoved(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")
	removed := filepath.Join(dir, "out-removed.csv")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "x"), 0755))
	require.NoError(t, os.WriteFile(removed, []byte("old"), 0644))

	_, err := NewCleaner().Run(Options{InputPath: findTestFile(t, "sample.tsv"), OutputPath: out})
	require.Error(t, err)

	data, err := os.ReadFile(removed)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary or backup files left behind")
}

func TestRun_ReplacesExistingOutputs(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out-removed.csv"), []byte("stale"), 0644))

	_, err := NewCleaner().Run(Options{InputPath: findTestFile(t, "sample.tsv"), OutputPath: out})
	require.NoError(t, err)

	assertSameFile(t, findTestFile(t, "sample_clean.csv"), out)
	assertSameFile(t, findTestFile(t, "sample_clean-removed.csv"), filepath.Join(dir, "out-removed.csv"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRun_LineEndings(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")

	_, err := NewCleaner().Run(Options{
		InputPath:     findTestFile(t, "sample.tsv"),
		OutputPath:    out,
		RemovedSuffix: ".dropped",
		LF:            true,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "out.dropped.csv"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\r\n")
	assert.Contains(t, string(data), "MA0020,Dof,cle1,60,71,-,9.8,5e-05,0.03,AAAAAAAAAAAA\n")
}

func TestRun_DuckDBExport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "runs.duckdb")

	res, err := NewCleaner().Run(Options{
		InputPath:  findTestFile(t, "sample.tsv"),
		OutputPath: filepath.Join(dir, "out.csv"),
		DBPath:     dbPath,
	})
	require.NoError(t, err)

	store, err := duckdb.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	fp, err := duckdb.StatFile(findTestFile(t, "sample.tsv"))
	require.NoError(t, err)
	ids, err := store.FindRunsByInput(fp)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	kept, err := store.LookupMatches(ids[0], duckdb.StatusKept)
	require.NoError(t, err)
	assert.Equal(t, res.Kept, kept)

	n, err := store.CountMatches(ids[0], duckdb.StatusRemoved)
	require.NoError(t, err)
	assert.Equal(t, res.Stats.Removed, n)
}

func assertSameFile(t *testing.T, want, got string) {
	t.Helper()
	w, err := os.ReadFile(want)
	require.NoError(t, err)
	g, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, string(w), string(g))
}

// readCSVAsTSV converts a cleaned CSV back into scanner TSV and parses it.
func readCSVAsTSV(t *testing.T, path string) ([]*motif.Record, error) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)

	var buf bytes.Buffer
	for _, row := range rows {
		buf.WriteString(strings.Join(row, "\t") + "\n")
	}

	tsv := filepath.Join(t.TempDir(), "again.tsv")
	require.NoError(t, os.WriteFile(tsv, buf.Bytes(), 0644))
	return fimo.ReadFile(tsv)
}

func findTestFile(t *testing.T, name string) string {
	t.Helper()

	// Try different relative paths
	paths := []string{
		filepath.Join("testdata", name),
		filepath.Join("..", "..", "testdata", name),
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	t.Fatalf("Test file not found: %s", name)
	return ""
}
