package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/preprint-census/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the roster with candidates and selection markers",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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
		fmt.Println("Workspace is empty. Run resolve first.")
		return nil
	}

	totalCands, totalSelected := 0, 0
	for _, srv := range servers {
		cands, err := store.Candidates(ctx, srv.Name)
		if err != nil {
			return err
		}
		selections, err := store.Selections(ctx, srv.Name)
		if err != nil {
			return err
		}
		selected := make(map[types.SelectionKey]bool, len(selections))
		for _, key := range selections {
			selected[key] = true
		}

		fmt.Printf("%s (%d candidate(s), %d selected)\n", srv.Name, len(cands), len(selections))
		for _, c := range cands {
			marker := " "
			if selected[c.Key()] {
				marker = "x"
			}
			fmt.Printf("  [%s] %-28s %s (~%d results)\n", marker, c.Key(), c.Label, c.EstimateTotal)
		}
		if len(cands) == 0 {
			fmt.Println("  no candidates")
		}
		totalCands += len(cands)
		totalSelected += len(selections)
	}

	fmt.Printf("\n%d server(s), %d candidate(s), %d selected\n", len(servers), totalCands, totalSelected)
	return nil
}
