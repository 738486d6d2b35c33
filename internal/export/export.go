// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export assembles the census results archive: a CSV summary of
// every roster server plus the raw registry documents sampled for the
// selected candidates.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/preprint-census/internal/roster"
	"github.com/pdiddy/preprint-census/internal/sample"
	"github.com/pdiddy/preprint-census/pkg/types"
)

// csvHeader is the servers.csv column set, in order.
var csvHeader = []string{
	"server_name", "presence_in_crossref", "matched_strategy", "matched_ids",
	"total_results_estimate", "sample_count_saved", "notes",
}

// SummaryRow is one servers.csv line.
type SummaryRow struct {
	ServerName    string
	Presence      string
	Strategies    []string
	IDs           []string
	TotalEstimate int
	SamplesSaved  int
	Notes         string
}

func (r SummaryRow) record() []string {
	return []string{
		r.ServerName,
		r.Presence,
		strings.Join(r.Strategies, ";"),
		strings.Join(r.IDs, ";"),
		strconv.Itoa(r.TotalEstimate),
		strconv.Itoa(r.SamplesSaved),
		r.Notes,
	}
}

// Result holds a fully assembled archive and its summary.
type Result struct {
	// Archive is the complete ZIP. It is only populated once every
	// entry has been written; a failed build returns no bytes.
	Archive []byte

	Rows         []SummaryRow
	SamplesSaved int
	Warnings     int
}

// Builder assembles result archives. Sampling failures for individual
// candidates become warnings; only archive assembly itself can fail.
type Builder struct {
	Sampler *sample.Sampler
	Log     zerolog.Logger
}

// Build samples every selected candidate and assembles the archive in
// memory. servers is the roster in order; selected maps a server name
// to its confirmed candidates in selection order. Progress goes to w.
func (b *Builder) Build(ctx context.Context, servers []types.ServerInput, selected map[string][]types.Candidate, p sample.Params, w io.Writer) (Result, error) {
	var result Result
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	summary := map[string]any{
		"date":      time.Now().Format(time.RFC3339),
		"sample_n":  p.N,
		"sort_mode": string(p.Mode),
		"date_from": p.From,
		"date_to":   p.Until,
	}
	if err := writeJSON(zw, "json/selection_summary.json", summary); err != nil {
		return Result{}, err
	}

	for i, srv := range servers {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		row, warnings, err := b.exportServer(ctx, zw, srv, selected[srv.Name], p, w)
		if err != nil {
			return Result{}, err
		}
		fmt.Fprintf(w, "[%d/%d] %s: presence=%s, %d sample(s)\n",
			i+1, len(servers), srv.Name, row.Presence, row.SamplesSaved)

		result.Rows = append(result.Rows, row)
		result.SamplesSaved += row.SamplesSaved
		result.Warnings += warnings
	}

	if err := writeCSV(zw, result.Rows); err != nil {
		return Result{}, err
	}
	if err := zw.Close(); err != nil {
		return Result{}, fmt.Errorf("finalizing archive: %w", err)
	}

	fmt.Fprintf(w, "\nExported %d server(s): %d sample(s) saved, %d warning(s)\n",
		len(result.Rows), result.SamplesSaved, result.Warnings)

	result.Archive = buf.Bytes()
	return result, nil
}

func (b *Builder) exportServer(ctx context.Context, zw *zip.Writer, srv types.ServerInput, cands []types.Candidate, p sample.Params, w io.Writer) (SummaryRow, int, error) {
	row := SummaryRow{ServerName: srv.Name, Presence: "no", Notes: srv.Notes}
	if len(cands) == 0 {
		return row, 0, nil
	}

	slug := roster.Slug(srv.Name)
	venueWritten := false
	warnings := 0

	for _, cand := range cands {
		row.Strategies = append(row.Strategies, string(cand.Strategy))
		row.IDs = append(row.IDs, cand.ID)
		row.TotalEstimate += cand.EstimateTotal

		if !venueWritten && len(cand.VenueMeta) > 0 {
			if err := writeRaw(zw, "json/"+slug+"/journal.json", cand.VenueMeta); err != nil {
				return SummaryRow{}, 0, err
			}
			venueWritten = true
		}

		if p.N <= 0 {
			continue
		}
		records, err := b.Sampler.Sample(ctx, cand, p)
		if err != nil {
			warnings++
			fmt.Fprintf(w, "  warning: sampling %s for %s: %v\n", cand.Key(), srv.Name, err)
			b.Log.Warn().Str("server", srv.Name).Str("candidate", cand.Key().String()).
				Err(err).Msg("sampling failed")
			continue
		}
		for idx, record := range records {
			name := fmt.Sprintf("json/%s/sample_preprints/doc_%s_%s_%d.json",
				slug, cand.Strategy, roster.Slug(cand.ID), idx+1)
			if err := writeRaw(zw, name, record); err != nil {
				return SummaryRow{}, 0, err
			}
		}
		row.SamplesSaved += len(records)
	}

	if row.TotalEstimate > 0 {
		row.Presence = "yes"
	}
	return row, warnings, nil
}

// DefaultFilename returns the timestamped archive name for t.
func DefaultFilename(t time.Time) string {
	return "crossref_preprint_servers_results_" + t.Format("2006-01-02_15-04") + ".zip"
}

func writeCSV(zw *zip.Writer, rows []SummaryRow) error {
	entry, err := zw.Create("servers.csv")
	if err != nil {
		return fmt.Errorf("adding servers.csv to archive: %w", err)
	}
	cw := csv.NewWriter(entry)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing servers.csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row.record()); err != nil {
			return fmt.Errorf("writing servers.csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing servers.csv: %w", err)
	}
	return nil
}

func writeJSON(zw *zip.Writer, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}
	return writeEntry(zw, name, data)
}

func writeRaw(zw *zip.Writer, name string, raw json.RawMessage) error {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return fmt.Errorf("formatting %s: %w", name, err)
	}
	return writeEntry(zw, name, pretty.Bytes())
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	entry, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("adding %s to archive: %w", name, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
