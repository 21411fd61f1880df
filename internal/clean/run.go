package clean

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/lubieowoce/overlappy/internal/duckdb"
	"github.com/lubieowoce/overlappy/internal/fimo"
	"github.com/lubieowoce/overlappy/internal/motif"
	"github.com/lubieowoce/overlappy/internal/output"
)

// OutputExt is the extension every output path must carry.
const OutputExt = ".csv"

// DefaultRemovedSuffix is inserted before OutputExt to name the removed output.
const DefaultRemovedSuffix = "-removed"

// ErrBadOutputExt is returned when the output path does not end in OutputExt.
var ErrBadOutputExt = errors.New("output path must end in " + OutputExt)

// ErrBadRemovedSuffix is returned for a removed suffix that would place the
// removed output in another directory.
var ErrBadRemovedSuffix = errors.New("removed suffix must not contain a path separator")

// ErrSamePath is returned when the input, output and removed paths overlap.
var ErrSamePath = errors.New("input, output and removed paths must differ")

// Options configures a file-level cleaning run.
type Options struct {
	InputPath     string
	OutputPath    string
	RemovedSuffix string // defaults to DefaultRemovedSuffix
	DBPath        string // optional DuckDB export; empty disables it
	LF            bool   // write LF instead of CRLF line endings
}

// RemovedPath derives the removed-records path from the output path:
// "out.csv" becomes "out-removed.csv" for the default suffix.
func RemovedPath(out, suffix string) (string, error) {
	if !strings.HasSuffix(out, OutputExt) {
		return "", fmt.Errorf("%w: %q", ErrBadOutputExt, out)
	}
	if suffix == "" {
		suffix = DefaultRemovedSuffix
	}
	if err := ValidateRemovedSuffix(suffix); err != nil {
		return "", err
	}
	return strings.TrimSuffix(out, OutputExt) + suffix + OutputExt, nil
}

// ValidateRemovedSuffix checks that suffix keeps the removed output next to
// the cleaned output.
func ValidateRemovedSuffix(suffix string) error {
	if strings.ContainsRune(suffix, '/') || strings.ContainsRune(suffix, filepath.Separator) {
		return fmt.Errorf("%w: %q", ErrBadRemovedSuffix, suffix)
	}
	return nil
}

// Run reads opts.InputPath, cleans it and writes the cleaned and removed
// outputs. Paths are validated before any file is touched, and neither output
// is created unless the whole input parses and both files are written.
func (c *Cleaner) Run(opts Options) (*Result, error) {
	if opts.InputPath == "" {
		return nil, errors.New("input path is required")
	}
	removedPath, err := RemovedPath(opts.OutputPath, opts.RemovedSuffix)
	if err != nil {
		return nil, err
	}
	if err := distinctPaths(opts.InputPath, opts.OutputPath, removedPath); err != nil {
		return nil, err
	}

	records, err := fimo.ReadFile(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", opts.InputPath, err)
	}
	c.logger.Info("read motif matches",
		zap.String("path", opts.InputPath),
		zap.Int("records", len(records)))

	res := c.Clean(records)

	// The cleaned output is renamed last so it only appears once the
	// removed output is in place.
	if err := writeOutputs([]outputFile{
		{path: removedPath, records: res.Removed},
		{path: opts.OutputPath, records: res.Kept},
	}, !opts.LF); err != nil {
		return nil, err
	}
	c.logger.Info("wrote outputs",
		zap.String("cleaned", opts.OutputPath),
		zap.String("removed", removedPath))

	if opts.DBPath != "" {
		if err := c.export(opts, res); err != nil {
			return nil, err
		}
	}

	return res, nil
}

func (c *Cleaner) export(opts Options, res *Result) error {
	fp := duckdb.FileFingerprint{Path: opts.InputPath}
	if opts.InputPath != "-" {
		var err error
		if fp, err = duckdb.StatFile(opts.InputPath); err != nil {
			return fmt.Errorf("stat input: %w", err)
		}
	}

	store, err := duckdb.Open(opts.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.ExportRun(fp, duckdb.RunCounts{
		Input:   res.Stats.Input,
		Removed: res.Stats.Removed,
		Groups:  res.Stats.Groups,
		Kept:    res.Stats.Kept,
	}, res.Kept, res.Removed)
	if err != nil {
		return fmt.Errorf("export to %s: %w", opts.DBPath, err)
	}
	c.logger.Info("exported run", zap.String("db", opts.DBPath), zap.Int64("run_id", id))
	return nil
}

// distinctPaths rejects runs where any two of the paths name the same file.
func distinctPaths(paths ...string) error {
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		if prev, ok := seen[abs]; ok {
			return fmt.Errorf("%w: %q and %q", ErrSamePath, prev, p)
		}
		seen[abs] = p
	}
	return nil
}

type outputFile struct {
	path    string
	records []*motif.Record
}

// placed is an output renamed into place, with the backup of the file it
// replaced, if any.
type placed struct {
	path   string
	backup string
}

// writeOutputs writes each record set to a temporary file next to its
// destination, then renames them into place in order. If a rename fails,
// outputs already placed are removed and any files they replaced restored.
func writeOutputs(files []outputFile, crlf bool) error {
	tmps := make([]string, 0, len(files))
	defer func() {
		for _, tmp := range tmps {
			os.Remove(tmp)
		}
	}()

	for _, f := range files {
		tmp, err := writeTemp(f.path, f.records, crlf)
		if err != nil {
			return err
		}
		tmps = append(tmps, tmp)
	}

	var done []placed
	for i, f := range files {
		p, err := place(tmps[i], f.path)
		if err != nil {
			rollback(done)
			return err
		}
		done = append(done, p)
	}

	for _, p := range done {
		if p.backup != "" {
			os.Remove(p.backup)
		}
	}
	return nil
}

// place renames tmp to path, first moving an existing regular file at path
// aside.
func place(tmp, path string) (placed, error) {
	p := placed{path: path}
	if info, err := os.Lstat(path); err == nil && info.Mode().IsRegular() {
		bak, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".bak.*")
		if err != nil {
			return p, fmt.Errorf("back up %s: %w", path, err)
		}
		bak.Close()
		if err := os.Rename(path, bak.Name()); err != nil {
			os.Remove(bak.Name())
			return p, fmt.Errorf("back up %s: %w", path, err)
		}
		p.backup = bak.Name()
	}

	if err := os.Rename(tmp, path); err != nil {
		if p.backup != "" {
			os.Rename(p.backup, path)
		}
		return p, fmt.Errorf("rename %s: %w", path, err)
	}
	return p, nil
}

func rollback(done []placed) {
	for i := len(done) - 1; i >= 0; i-- {
		p := done[i]
		os.Remove(p.path)
		if p.backup != "" {
			os.Rename(p.backup, p.path)
		}
	}
}

func writeTemp(path string, records []*motif.Record, crlf bool) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("create output for %s: %w", path, err)
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("chmod %s: %w", path, err)
	}

	w := output.NewCSVWriter(f)
	w.SetCRLF(crlf)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return f.Name(), nil
}
