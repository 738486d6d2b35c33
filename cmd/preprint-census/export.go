// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/preprint-census/internal/export"
	"github.com/pdiddy/preprint-census/internal/registry"
	"github.com/pdiddy/preprint-census/internal/sample"
	"github.com/pdiddy/preprint-census/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Sample selected candidates and build the ZIP archive",
	Long: `Export samples up to N posted-content records for every selected
candidate and writes a ZIP archive containing servers.csv plus the raw
JSON documents (venue metadata and sampled records) per server. Servers
without selections still get a summary row with presence "no".

The archive is assembled in memory and written in one piece; a failed
build leaves no partial file.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("out", "", "output ZIP path (default: timestamped name in the workspace)")
	exportCmd.Flags().Int("samples", 0, "records per selected candidate (default from config)")
	exportCmd.Flags().String("sort", "", "sample order: latest, most-cited, or random")
	exportCmd.Flags().String("from", "", "earliest publication date (YYYY-MM-DD)")
	exportCmd.Flags().String("until", "", "latest publication date (YYYY-MM-DD)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	store, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := context.Background()

	servers, err := store.Servers(ctx)
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		return fmt.Errorf("workspace is empty: run resolve first")
	}

	selected := make(map[string][]types.Candidate, len(servers))
	for _, srv := range servers {
		cands, err := store.SelectedCandidates(ctx, srv.Name)
		if err != nil {
			return err
		}
		selected[srv.Name] = cands
	}

	cfg := censusConfig()
	params, err := sampleParams(cmd, cfg)
	if err != nil {
		return err
	}

	builder := &export.Builder{
		Sampler: &sample.Sampler{Client: registry.New(cfg.Registry, logger)},
		Log:     logger,
	}
	result, err := builder.Build(ctx, servers, selected, params, os.Stdout)
	if err != nil {
		return err
	}

	outPath, _ := cmd.Flags().GetString("out")
	if outPath == "" {
		outPath = filepath.Join(store.Dir(), export.DefaultFilename(time.Now()))
	}
	if err := os.WriteFile(outPath, result.Archive, 0o644); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	fmt.Printf("Archive written to %s (%d bytes)\n", outPath, len(result.Archive))
	return nil
}

// sampleParams merges sampling flags over config values and validates
// the sort mode and date bounds. Commands without a --samples flag keep
// the configured N.
func sampleParams(cmd *cobra.Command, cfg types.CensusConfig) (sample.Params, error) {
	p := sample.Params{
		N:     cfg.Sample.N,
		From:  cfg.Sample.From,
		Until: cfg.Sample.Until,
	}

	if cmd.Flags().Lookup("samples") != nil && cmd.Flags().Changed("samples") {
		p.N, _ = cmd.Flags().GetInt("samples")
	}

	sortValue := cfg.Sample.Sort
	if s, _ := cmd.Flags().GetString("sort"); s != "" {
		sortValue = s
	}
	mode, err := types.ParseSortMode(sortValue)
	if err != nil {
		return sample.Params{}, err
	}
	p.Mode = mode

	if from, _ := cmd.Flags().GetString("from"); from != "" {
		p.From = from
	}
	if until, _ := cmd.Flags().GetString("until"); until != "" {
		p.Until = until
	}
	for _, d := range []struct{ flag, value string }{{"from", p.From}, {"until", p.Until}} {
		if d.value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d.value); err != nil {
			return sample.Params{}, fmt.Errorf("invalid --%s date %q: want YYYY-MM-DD", d.flag, d.value)
		}
	}
	return p, nil
}
