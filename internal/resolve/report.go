// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/preprint-census/pkg/types"
)

// ReportFile is the on-disk YAML record of a resolution run. The
// operator reviews it before confirming matches; the workspace database
// remains the authoritative copy of the candidates themselves, so there
// is no reader counterpart.
type ReportFile struct {
	Parameters ReportParams   `yaml:"parameters"`
	Servers    []ServerReport `yaml:"servers"`
	Summary    ReportSummary  `yaml:"summary"`
}

// ReportParams stores the run parameters in a serializable form.
type ReportParams struct {
	PerTitle int    `yaml:"per_title"`
	Mailto   string `yaml:"mailto,omitempty"`
}

// ServerReport stores one server's candidates and warnings.
type ServerReport struct {
	Name       string            `yaml:"server_name"`
	Candidates []types.Candidate `yaml:"candidates,omitempty"`
	Warnings   []string          `yaml:"warnings,omitempty"`
}

// ReportSummary stores run statistics and a timestamp.
type ReportSummary struct {
	Servers    int       `yaml:"servers"`
	Candidates int       `yaml:"candidates"`
	Warnings   int       `yaml:"warnings"`
	Unmatched  []string  `yaml:"unmatched,omitempty"`
	Timestamp  time.Time `yaml:"timestamp"`
}

// WriteReport saves a resolution run to a YAML file.
func WriteReport(path string, params ReportParams, result BatchResult) error {
	rf := ReportFile{
		Parameters: params,
		Summary: ReportSummary{
			Servers:    len(result.Resolutions),
			Candidates: result.Candidates,
			Warnings:   result.Warnings,
			Unmatched:  result.Unmatched(),
			Timestamp:  time.Now(),
		},
	}

	for _, res := range result.Resolutions {
		sr := ServerReport{
			Name:       res.Server.Name,
			Candidates: res.Candidates,
		}
		for _, w := range res.Warnings {
			sr.Warnings = append(sr.Warnings, w.String())
		}
		rf.Servers = append(rf.Servers, sr)
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling resolution report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
