// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/preprint-census/pkg/types"
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Confirm candidate identities for sampling and export",
	Long: `Select marks resolved candidates as confirmed registry identities; only
confirmed candidates are sampled and exported. Candidates are named
strategy=id as printed by status, for example issn=2692-8205 or
prefix=10.1101.

Per server: --candidate (repeatable), --all, or --clear. Across the whole
workspace: --all-servers or --clear-all.`,
	RunE: runSelect,
}

func init() {
	selectCmd.Flags().String("server", "", "roster server to modify")
	selectCmd.Flags().StringArray("candidate", nil, "candidate to confirm, as strategy=id (repeatable)")
	selectCmd.Flags().Bool("all", false, "confirm every candidate of --server")
	selectCmd.Flags().Bool("clear", false, "drop all confirmations of --server")
	selectCmd.Flags().Bool("all-servers", false, "confirm every candidate of every server")
	selectCmd.Flags().Bool("clear-all", false, "drop every confirmation in the workspace")

	rootCmd.AddCommand(selectCmd)
}

func runSelect(cmd *cobra.Command, args []string) error {
	server, _ := cmd.Flags().GetString("server")
	keys, _ := cmd.Flags().GetStringArray("candidate")
	all, _ := cmd.Flags().GetBool("all")
	clear, _ := cmd.Flags().GetBool("clear")
	allServers, _ := cmd.Flags().GetBool("all-servers")
	clearAll, _ := cmd.Flags().GetBool("clear-all")

	store, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := context.Background()

	switch {
	case clearAll:
		if err := store.ClearAllSelections(ctx); err != nil {
			return err
		}
		fmt.Println("Cleared all selections.")
		return nil
	case allServers:
		n, err := store.SelectAllServers(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Selected %d candidate(s) across all servers.\n", n)
		return nil
	}

	if server == "" {
		return fmt.Errorf("provide --server with --candidate/--all/--clear, or use --all-servers/--clear-all")
	}
	if _, err := store.Server(ctx, server); err != nil {
		return err
	}

	switch {
	case clear:
		if err := store.ClearSelection(ctx, server); err != nil {
			return err
		}
		fmt.Printf("Cleared selections for %s.\n", server)
	case all:
		n, err := store.SelectAll(ctx, server)
		if err != nil {
			return err
		}
		fmt.Printf("Selected %d candidate(s) for %s.\n", n, server)
	case len(keys) > 0:
		for _, raw := range keys {
			key, err := parseSelectionKey(raw)
			if err != nil {
				return err
			}
			if err := store.Select(ctx, server, key); err != nil {
				return err
			}
			fmt.Printf("Selected %s for %s.\n", key, server)
		}
	default:
		return fmt.Errorf("nothing to do: provide --candidate, --all, or --clear")
	}
	return nil
}

// parseSelectionKey splits strategy=id on the first equals sign.
func parseSelectionKey(raw string) (types.SelectionKey, error) {
	strategy, id, ok := strings.Cut(raw, "=")
	if !ok || strategy == "" || id == "" {
		return types.SelectionKey{}, fmt.Errorf("invalid candidate %q: want strategy=id", raw)
	}
	return types.SelectionKey{Strategy: types.Strategy(strategy), ID: id}, nil
}
