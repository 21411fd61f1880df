// Package main provides the overlappy command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lubieowoce/overlappy/internal/clean"
	"github.com/lubieowoce/overlappy/internal/output"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Config keys
const (
	keyRemovedSuffix = "removed_suffix"
	keyDB            = "db"
	keyLF            = "lf"
	keyVerbose       = "verbose"
	keySummary       = "summary"
)

// usageError marks invocation errors that exit with ExitUsage.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	viper.Reset()

	root := newRootCmd()
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var uerr *usageError
		if errors.As(err, &uerr) || isInvocationError(err) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

// isInvocationError reports path errors detected before any file is read.
func isInvocationError(err error) bool {
	return errors.Is(err, clean.ErrBadOutputExt) ||
		errors.Is(err, clean.ErrBadRemovedSuffix) ||
		errors.Is(err, clean.ErrSamePath)
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "overlappy [<input.tsv> <output.csv>]",
		Short: "Clean motif scanner matches",
		Long: `overlappy removes low-complexity motif matches and collapses overlapping
matches of the same pattern on the same sequence into the single match with the
lowest p-value.

Given <output.csv>, removed matches are written to <output>-removed.csv.`,
		Example: `  overlappy fimo.tsv fimo-clean.csv
  overlappy clean --db runs.duckdb fimo.tsv.gz fimo-clean.csv
  overlappy config set removed_suffix _lowcomplexity`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return &usageError{fmt.Errorf("expected <input> <output>, got %d arguments", len(args))}
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runClean(cmd, args[0], args[1])
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ~/.overlappy.yaml)")
	pf.BoolP("verbose", "v", false, "log every removed and collapsed match")
	pf.String("removed-suffix", clean.DefaultRemovedSuffix, "suffix inserted before .csv to name the removed-records output")
	pf.String("db", "", "also export the run to this DuckDB database")
	pf.Bool("lf", false, "write LF line endings instead of CRLF")
	pf.Bool("summary", false, "print a per-group summary table to stderr")

	_ = viper.BindPFlag(keyVerbose, pf.Lookup("verbose"))
	_ = viper.BindPFlag(keyRemovedSuffix, pf.Lookup("removed-suffix"))
	_ = viper.BindPFlag(keyDB, pf.Lookup("db"))
	_ = viper.BindPFlag(keyLF, pf.Lookup("lf"))
	_ = viper.BindPFlag(keySummary, pf.Lookup("summary"))

	cmd.AddCommand(newCleanCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean <input.tsv> <output.csv>",
		Short: "Remove low-complexity and overlapping motif matches",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(2)(cmd, args); err != nil {
				return &usageError{err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, args[0], args[1])
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "overlappy version %s (%s) built %s\n", version, commit, date)
		},
	}
}

func runClean(cmd *cobra.Command, input, out string) error {
	logger, err := newLogger(viper.GetBool(keyVerbose))
	if err != nil {
		return err
	}
	defer logger.Sync()

	c := clean.NewCleaner()
	c.SetLogger(logger)

	res, err := c.Run(clean.Options{
		InputPath:     input,
		OutputPath:    out,
		RemovedSuffix: viper.GetString(keyRemovedSuffix),
		DBPath:        viper.GetString(keyDB),
		LF:            viper.GetBool(keyLF),
	})
	if err != nil {
		return err
	}

	if viper.GetBool(keySummary) {
		return writeSummary(cmd.ErrOrStderr(), res)
	}
	return nil
}

func writeSummary(w io.Writer, res *clean.Result) error {
	sw := output.NewSummaryWriter(w)
	if err := sw.WriteHeader(); err != nil {
		return err
	}
	for _, g := range res.Groups {
		if err := sw.WriteGroup(g.Key, g.Matches, g.Clusters); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	sw.WriteTotals(w, res.Stats.Input, res.Stats.Removed)
	return nil
}

// newLogger builds a console logger on stderr; verbose enables debug output.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// initConfig reads OVERLAPPY_* environment variables and the config file.
// A missing default config file is not an error; a missing explicit one is.
// Without a home directory only the environment is used.
func initConfig(cfgFile string) error {
	viper.SetEnvPrefix("OVERLAPPY")
	viper.AutomaticEnv()

	if cfgFile == "" {
		path, err := defaultConfigPath()
		if err != nil {
			return nil
		}
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		if cfgFile == "" && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}
