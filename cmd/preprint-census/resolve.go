// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/preprint-census/internal/registry"
	"github.com/pdiddy/preprint-census/internal/resolve"
	"github.com/pdiddy/preprint-census/internal/roster"
	"github.com/pdiddy/preprint-census/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [roster.csv]",
	Short: "Resolve roster servers to registry identity candidates",
	Long: `Resolve reads a roster of preprint servers and probes the registry for
candidate identities: declared ISSNs, DOI prefixes, member IDs, and title
searches. Candidates and the roster are saved to the workspace for the
select, preview, and export commands.

The roster CSV is matched by header name; recognized columns are
server_name, issn_l, issn_print, issn_electronic, doi_prefixes,
crossref_member_id, title_exact, title_variants, and notes. Multi-valued
cells are ;-separated. --names adds freeform names, one per line.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("names", "", "file of pasted server names, one per line (- for stdin)")
	resolveCmd.Flags().String("report", "", "write a YAML resolution report to this path")
	resolveCmd.Flags().Int("per-title", 0, "candidates kept per searched title, 0-5 (0 disables title search)")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	namesPath, _ := cmd.Flags().GetString("names")
	if len(args) == 0 && namesPath == "" {
		return fmt.Errorf("provide a roster CSV, --names file, or both")
	}

	servers, err := loadRoster(args, namesPath)
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		return fmt.Errorf("roster is empty")
	}

	cfg := censusConfig()
	if cmd.Flags().Changed("per-title") {
		cfg.Resolve.PerTitle, _ = cmd.Flags().GetInt("per-title")
	}

	resolver := &resolve.Resolver{
		Client:   registry.New(cfg.Registry, logger),
		PerTitle: cfg.Resolve.PerTitle,
		Log:      logger,
	}

	result, err := resolver.ResolveAll(context.Background(), servers, os.Stdout)
	if err != nil {
		return err
	}

	store, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.SaveRoster(ctx, servers); err != nil {
		return err
	}
	for _, res := range result.Resolutions {
		if err := store.SaveCandidates(ctx, res.Server.Name, res.Candidates); err != nil {
			return err
		}
	}
	fmt.Printf("Workspace saved to %s\n", store.Dir())

	if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
		params := resolve.ReportParams{PerTitle: cfg.Resolve.PerTitle, Mailto: cfg.Registry.Mailto}
		if err := resolve.WriteReport(reportPath, params, result); err != nil {
			return err
		}
		fmt.Printf("Resolution report written to %s\n", reportPath)
	}
	return nil
}

// loadRoster reads CSV rows first, then pasted names, logs advisory
// validation problems, and dedupes by server name with the first
// occurrence winning.
func loadRoster(args []string, namesPath string) ([]types.ServerInput, error) {
	var servers []types.ServerInput

	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("opening roster: %w", err)
		}
		rows, err := roster.ParseCSV(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		servers = append(servers, rows...)
	}

	if namesPath != "" {
		var r io.Reader = os.Stdin
		if namesPath != "-" {
			f, err := os.Open(namesPath)
			if err != nil {
				return nil, fmt.Errorf("opening names file: %w", err)
			}
			defer f.Close()
			r = f
		}
		names, err := roster.ParseNames(r)
		if err != nil {
			return nil, err
		}
		servers = append(servers, names...)
	}

	for _, p := range roster.Validate(servers) {
		logger.Warn().Str("server", p.Server).Str("field", p.Field).Msg(p.String())
	}
	return roster.Dedupe(servers), nil
}
