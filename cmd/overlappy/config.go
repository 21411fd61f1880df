package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lubieowoce/overlappy/internal/clean"
)

const configFileName = ".overlappy.yaml"

// setting is a key accepted by `config set` and the parser for its value.
type setting struct {
	key   string
	parse func(string) (any, error)
}

var settings = []setting{
	{keyRemovedSuffix, parseRemovedSuffix},
	{keyDB, func(v string) (any, error) { return v, nil }},
	{keyLF, parseBool},
	{keySummary, parseBool},
	{keyVerbose, parseBool},
}

func settingKeys() []string {
	keys := make([]string, len(settings))
	for i, s := range settings {
		keys[i] = s.key
	}
	return keys
}

func lookupSetting(key string) (setting, error) {
	for _, s := range settings {
		if s.key == key {
			return s, nil
		}
	}
	return setting{}, &usageError{fmt.Errorf("unknown config key %q (valid keys: %s)",
		key, strings.Join(settingKeys(), ", "))}
}

func parseBool(v string) (any, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%q is not a boolean", v)
	}
	return b, nil
}

func parseRemovedSuffix(v string) (any, error) {
	if err := clean.ValidateRemovedSuffix(v); err != nil {
		return nil, err
	}
	return v, nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage overlappy configuration",
		Long: `Show, get, or set configuration values. Config is stored in ~/.overlappy.yaml.

Keys: ` + strings.Join(settingKeys(), ", ") + `. Environment variables OVERLAPPY_<KEY>
override the file; command-line flags override both.`,
		Example: `  overlappy config                                   # show effective config
  overlappy config set removed_suffix _lowcomplexity  # rename removed output
  overlappy config set lf true                        # write LF line endings
  overlappy config get db                             # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args[0], args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	})

	return cmd
}

// runConfigShow prints the effective value of every key.
func runConfigShow(cmd *cobra.Command) error {
	effective := make(map[string]any, len(settings))
	for _, s := range settings {
		effective[s.key] = viper.Get(s.key)
	}
	out, err := yaml.Marshal(effective)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

// runConfigSet validates value and stores it in the config file. Keys
// already in the file are kept; flag defaults and environment values are
// never written.
func runConfigSet(cmd *cobra.Command, key, value string) error {
	s, err := lookupSetting(key)
	if err != nil {
		return err
	}
	v, err := s.parse(value)
	if err != nil {
		return &usageError{fmt.Errorf("invalid value for %s: %w", key, err)}
	}

	path := viper.ConfigFileUsed()
	if path == "" {
		if path, err = defaultConfigPath(); err != nil {
			return err
		}
	}

	values, err := readConfigFile(path)
	if err != nil {
		return err
	}
	values[key] = v

	out, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v in %s\n", key, v, path)
	return nil
}

func runConfigGet(cmd *cobra.Command, key string) error {
	if _, err := lookupSetting(key); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), viper.Get(key))
	return nil
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configFileName), nil
}

// readConfigFile returns the keys stored in path; a missing file is empty.
func readConfigFile(path string) (map[string]any, error) {
	values := map[string]any{}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}
