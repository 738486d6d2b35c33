// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the preprint-census CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/preprint-census/internal/secrets"
	"github.com/pdiddy/preprint-census/internal/workspace"
	"github.com/pdiddy/preprint-census/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is the shared CLI logger, rebuilt in PersistentPreRunE once the
// verbose flag is known.
var logger = zerolog.Nop()

// secretDefault returns value when set and the named secret otherwise.
func secretDefault(key, value string) string {
	if value != "" {
		return value
	}
	return loadedSecrets[key]
}

// rootCmd is the base command for the preprint-census CLI.
var rootCmd = &cobra.Command{
	Use:   "preprint-census",
	Short: "Census preprint servers against the Crossref registry",
	Long: `preprint-census resolves preprint-server names to Crossref identifiers
(ISSN, DOI prefix, member ID), lets you confirm which candidate identities
are correct, samples posted-content records for the confirmed ones, and
packages the results into a ZIP archive (servers.csv + raw JSON documents).

The pipeline is a sequence of subcommands sharing a workspace directory:
resolve, select, status, preview, and export.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger = newLogger(verbose)

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./preprint-census.yaml or ~/.config/preprint-census/config.yaml)")
	rootCmd.PersistentFlags().String("workspace", "", "workspace directory holding census.db (default: workspace)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("preprint-census")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "preprint-census"))
		}
	}

	viper.SetEnvPrefix("PREPRINT_CENSUS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers the registry etiquette defaults: 500ms pacing and
// retry base, 5 attempts, and the public API base when api_base is empty.
func setDefaults() {
	viper.SetDefault("mailto", "")
	viper.SetDefault("plus_token", "")
	viper.SetDefault("api_base", "")
	viper.SetDefault("pacing_ms", 500)
	viper.SetDefault("retry_base_ms", 500)
	viper.SetDefault("max_retries", 5)
	viper.SetDefault("timeout_s", 60)
	viper.SetDefault("per_title", 2)
	viper.SetDefault("workspace", "workspace")

	viper.SetDefault("sample.n", 1)
	viper.SetDefault("sample.sort", string(types.SortLatest))
	viper.SetDefault("sample.from", "")
	viper.SetDefault("sample.until", "")
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).With().Timestamp().Logger().Level(level)
}

// censusConfig assembles the pipeline configuration from config file,
// environment, and secrets. Contact details fall back to .secrets/ keys
// when not set in the config.
func censusConfig() types.CensusConfig {
	return types.CensusConfig{
		Registry: types.RegistryConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   time.Duration(viper.GetInt("timeout_s")) * time.Second,
				UserAgent: "preprint-census/" + version,
			},
			BaseURL:    viper.GetString("api_base"),
			Mailto:     secretDefault("crossref-mailto", viper.GetString("mailto")),
			PlusToken:  secretDefault("crossref-plus-token", viper.GetString("plus_token")),
			Pacing:     time.Duration(viper.GetInt("pacing_ms")) * time.Millisecond,
			RetryBase:  time.Duration(viper.GetInt("retry_base_ms")) * time.Millisecond,
			MaxRetries: viper.GetInt("max_retries"),
		},
		Resolve: types.ResolveConfig{
			PerTitle: viper.GetInt("per_title"),
		},
		Sample: types.SampleConfig{
			N:     viper.GetInt("sample.n"),
			Sort:  viper.GetString("sample.sort"),
			From:  viper.GetString("sample.from"),
			Until: viper.GetString("sample.until"),
		},
		Workspace: viper.GetString("workspace"),
	}
}

// openWorkspace opens the census database in the configured directory.
// The --workspace flag wins over config file and environment.
func openWorkspace(cmd *cobra.Command) (*workspace.Store, error) {
	dir, _ := cmd.Flags().GetString("workspace")
	if dir == "" {
		dir = viper.GetString("workspace")
	}
	return workspace.Open(dir)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
