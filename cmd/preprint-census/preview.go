package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/preprint-census/internal/registry"
	"github.com/pdiddy/preprint-census/internal/sample"
	"github.com/pdiddy/preprint-census/internal/workspace"
	"github.com/pdiddy/preprint-census/pkg/types"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Fetch and pretty-print one sample record",
	Long: `Preview fetches a single posted-content record for one candidate of a
server so the match can be eyeballed before a full export. Without
--candidate it uses the server's first selected candidate, falling back
to its first resolved candidate.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("server", "", "roster server to preview (required)")
	previewCmd.Flags().String("candidate", "", "candidate to preview, as strategy=id")
	previewCmd.Flags().String("sort", "", "sample order: latest, most-cited, or random")
	previewCmd.Flags().String("from", "", "earliest publication date (YYYY-MM-DD)")
	previewCmd.Flags().String("until", "", "latest publication date (YYYY-MM-DD)")

	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	server, _ := cmd.Flags().GetString("server")
	if server == "" {
		return fmt.Errorf("provide --server")
	}

	store, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := context.Background()

	if _, err := store.Server(ctx, server); err != nil {
		return err
	}
	cand, err := previewCandidate(ctx, cmd, store, server)
	if err != nil {
		return err
	}

	cfg := censusConfig()
	params, err := sampleParams(cmd, cfg)
	if err != nil {
		return err
	}
	params.N = 1

	sampler := &sample.Sampler{Client: registry.New(cfg.Registry, logger)}
	records, err := sampler.Sample(ctx, cand, params)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("No records for %s (%s).\n", cand.Label, cand.Key())
		return nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, records[0], "", "  "); err != nil {
		return fmt.Errorf("formatting record: %w", err)
	}
	fmt.Printf("%s (%s, ~%d results)\n%s\n", cand.Label, cand.Key(), cand.EstimateTotal, buf.String())
	return nil
}

// previewCandidate picks the candidate to preview: the --candidate flag,
// else the first selected candidate, else the first resolved one.
func previewCandidate(ctx context.Context, cmd *cobra.Command, store *workspace.Store, server string) (types.Candidate, error) {
	cands, err := store.Candidates(ctx, server)
	if err != nil {
		return types.Candidate{}, err
	}
	if len(cands) == 0 {
		return types.Candidate{}, fmt.Errorf("no candidates for server %q: run resolve first", server)
	}

	if raw, _ := cmd.Flags().GetString("candidate"); raw != "" {
		key, err := parseSelectionKey(raw)
		if err != nil {
			return types.Candidate{}, err
		}
		for _, c := range cands {
			if c.Key() == key {
				return c, nil
			}
		}
		return types.Candidate{}, fmt.Errorf("no candidate %s for server %q", key, server)
	}

	if selected, err := store.SelectedCandidates(ctx, server); err != nil {
		return types.Candidate{}, err
	} else if len(selected) > 0 {
		return selected[0], nil
	}
	return cands[0], nil
}
