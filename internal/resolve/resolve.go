// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve maps roster servers to registry identity candidates.
// Each server is probed with up to four strategies (declared ISSNs, DOI
// prefixes, member ID, title search); a failing strategy is recorded as
// a warning and never aborts the remaining ones.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/pdiddy/preprint-census/internal/registry"
	"github.com/pdiddy/preprint-census/pkg/types"
)

const (
	// journalSearchRows is how many venue matches one title query requests.
	journalSearchRows = 5

	// issnsPerJournal caps how many ISSNs a single matched venue contributes.
	issnsPerJournal = 2

	// MaxPerTitle bounds the per-title candidate cap an operator may set.
	MaxPerTitle = 5
)

// Warning records one failed resolution step: the strategy that failed,
// the identifier or title it was probing, and the cause.
type Warning struct {
	Strategy types.Strategy
	Subject  string
	Err      error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %q: %v", w.Strategy, w.Subject, w.Err)
}

// Resolution holds the outcome for one server: the deduplicated
// candidates found plus the warnings accumulated along the way.
type Resolution struct {
	Server     types.ServerInput
	Candidates []types.Candidate
	Warnings   []Warning
}

// Resolver finds registry identities for roster servers.
//
// PerTitle caps how many candidates each searched title may contribute
// and how many title variants are searched; zero disables title search
// entirely. Values above MaxPerTitle are clamped.
type Resolver struct {
	Client   *registry.Client
	PerTitle int
	Log      zerolog.Logger
}

// Resolve runs every applicable strategy for one server. Candidates
// sharing a (strategy, id) pair are reported once, first find wins.
// Resolve itself never fails; strategy errors land in Warnings.
func (r *Resolver) Resolve(ctx context.Context, server types.ServerInput) Resolution {
	res := Resolution{Server: server}
	seen := make(map[types.SelectionKey]bool)

	add := func(c types.Candidate) {
		if seen[c.Key()] {
			return
		}
		seen[c.Key()] = true
		res.Candidates = append(res.Candidates, c)
	}
	warn := func(strategy types.Strategy, subject string, err error) {
		res.Warnings = append(res.Warnings, Warning{Strategy: strategy, Subject: subject, Err: err})
		r.Log.Warn().
			Str("server", server.Name).
			Str("strategy", string(strategy)).
			Str("subject", subject).
			Err(err).
			Msg("resolution strategy failed")
	}

	for _, issn := range server.ISSNs() {
		c, err := r.resolveISSN(ctx, issn)
		if err != nil {
			warn(types.StrategyISSN, issn, err)
			continue
		}
		add(c)
	}

	for _, prefix := range server.DOIPrefixes {
		c, err := r.resolvePrefix(ctx, prefix)
		if err != nil {
			warn(types.StrategyPrefix, prefix, err)
			continue
		}
		add(c)
	}

	if server.MemberID != "" {
		c, err := r.resolveMember(ctx, server.MemberID)
		if err != nil {
			warn(types.StrategyMember, server.MemberID, err)
		} else {
			add(c)
		}
	}

	perTitle := r.perTitle()
	if perTitle > 0 {
		titles := []string{}
		if t := server.Title(); t != "" {
			titles = append(titles, t)
		}
		variants := server.TitleVariants
		if len(variants) > perTitle {
			variants = variants[:perTitle]
		}
		titles = append(titles, variants...)

		for _, title := range titles {
			// The venue search and the container-title fallback fail
			// independently; one losing does not take the other down.
			cands, err := r.resolveTitleJournals(ctx, title)
			if err != nil {
				warn(types.StrategyTitleISSN, title, err)
				cands = nil
			}
			if fallback, ok, err := r.resolveContainerTitle(ctx, title); err != nil {
				warn(types.StrategyContainerTitle, title, err)
			} else if ok {
				cands = append(cands, fallback)
			}
			if len(cands) > perTitle {
				cands = cands[:perTitle]
			}
			for _, c := range cands {
				add(c)
			}
		}
	}

	return res
}

func (r *Resolver) perTitle() int {
	switch {
	case r.PerTitle <= 0:
		return 0
	case r.PerTitle > MaxPerTitle:
		return MaxPerTitle
	default:
		return r.PerTitle
	}
}

// resolveISSN builds a candidate for one declared ISSN. The venue lookup
// is advisory: when it fails the ISSN doubles as the display title and
// only the works count decides whether the strategy succeeds.
func (r *Resolver) resolveISSN(ctx context.Context, issn string) (types.Candidate, error) {
	title := issn
	var meta json.RawMessage
	if journal, err := r.Client.Journal(ctx, issn); err != nil {
		r.Log.Debug().Str("issn", issn).Err(err).Msg("venue lookup failed")
	} else {
		if journal.Title != "" {
			title = journal.Title
		}
		meta = journal.Raw
	}

	total, err := r.Client.WorksCount(ctx, registry.WorksQuery{
		Filters: []string{"issn:" + issn, registry.FilterPostedContent},
	})
	if err != nil {
		return types.Candidate{}, fmt.Errorf("counting works: %w", err)
	}

	return types.Candidate{
		Strategy:      types.StrategyISSN,
		ID:            issn,
		Label:         title + " - ISSN:" + issn,
		EstimateTotal: total,
		VenueMeta:     meta,
	}, nil
}

func (r *Resolver) resolvePrefix(ctx context.Context, prefix string) (types.Candidate, error) {
	total, err := r.Client.WorksCount(ctx, registry.WorksQuery{
		Filters: []string{"prefix:" + prefix, registry.FilterPostedContent},
	})
	if err != nil {
		return types.Candidate{}, fmt.Errorf("counting works: %w", err)
	}

	return types.Candidate{
		Strategy:      types.StrategyPrefix,
		ID:            prefix,
		Label:         "DOI prefix " + prefix,
		EstimateTotal: total,
	}, nil
}

// resolveMember builds a candidate for a registry member ID. Like the
// venue lookup, the member lookup is advisory and falls back to the raw
// ID as the display name.
func (r *Resolver) resolveMember(ctx context.Context, memberID string) (types.Candidate, error) {
	name := memberID
	var meta json.RawMessage
	if member, err := r.Client.Member(ctx, memberID); err != nil {
		r.Log.Debug().Str("member", memberID).Err(err).Msg("member lookup failed")
	} else {
		if member.PrimaryName != "" {
			name = member.PrimaryName
		}
		meta = member.Raw
	}

	total, err := r.Client.WorksCount(ctx, registry.WorksQuery{
		Filters: []string{"member:" + memberID, registry.FilterPostedContent},
	})
	if err != nil {
		return types.Candidate{}, fmt.Errorf("counting works: %w", err)
	}

	return types.Candidate{
		Strategy:      types.StrategyMember,
		ID:            memberID,
		Label:         "Member " + name,
		EstimateTotal: total,
		MemberMeta:    meta,
	}, nil
}

// resolveTitleJournals searches venues by title and counts posted
// content for up to issnsPerJournal ISSNs of each match. The caller
// appends the container-title fallback and applies the per-title cap,
// so the fallback is the first candidate the cap drops.
func (r *Resolver) resolveTitleJournals(ctx context.Context, title string) ([]types.Candidate, error) {
	journals, err := r.Client.SearchJournals(ctx, title, journalSearchRows)
	if err != nil {
		return nil, fmt.Errorf("searching venues: %w", err)
	}

	var cands []types.Candidate
	for _, j := range journals {
		issns := j.ISSN
		if len(issns) > issnsPerJournal {
			issns = issns[:issnsPerJournal]
		}
		for _, issn := range issns {
			total, err := r.Client.WorksCount(ctx, registry.WorksQuery{
				Filters: []string{"issn:" + issn, registry.FilterPostedContent},
			})
			if err != nil {
				return nil, fmt.Errorf("counting works for ISSN %s: %w", issn, err)
			}
			name := j.Title
			if name == "" {
				name = issn
			}
			cands = append(cands, types.Candidate{
				Strategy:      types.StrategyTitleISSN,
				ID:            issn,
				Label:         name + " - ISSN:" + issn,
				EstimateTotal: total,
				VenueMeta:     j.Raw,
			})
		}
	}
	return cands, nil
}

// resolveContainerTitle counts posted content whose container title matches
// the free text. A zero total means no candidate, not an empty one.
func (r *Resolver) resolveContainerTitle(ctx context.Context, title string) (types.Candidate, bool, error) {
	total, err := r.Client.WorksCount(ctx, registry.WorksQuery{
		ContainerTitle: title,
		Filters:        []string{registry.FilterPostedContent},
	})
	if err != nil {
		return types.Candidate{}, false, fmt.Errorf("counting container-title works: %w", err)
	}
	if total == 0 {
		return types.Candidate{}, false, nil
	}
	return types.Candidate{
		Strategy:      types.StrategyContainerTitle,
		ID:            title,
		Label:         fmt.Sprintf("Container-title match: %q", title),
		EstimateTotal: total,
	}, true, nil
}

// BatchResult summarizes a full resolution run.
type BatchResult struct {
	Resolutions []Resolution
	Candidates  int
	Warnings    int
}

// Unmatched returns the names of servers that produced no candidates.
func (b BatchResult) Unmatched() []string {
	var names []string
	for _, res := range b.Resolutions {
		if len(res.Candidates) == 0 {
			names = append(names, res.Server.Name)
		}
	}
	return names
}

// ResolveAll resolves every server in order, printing per-server status
// to w. It continues after per-strategy failures and stops early only
// when ctx is cancelled.
func (r *Resolver) ResolveAll(ctx context.Context, servers []types.ServerInput, w io.Writer) (BatchResult, error) {
	var result BatchResult
	for i, server := range servers {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		fmt.Fprintf(w, "[%d/%d] %s\n", i+1, len(servers), server.Name)
		res := r.Resolve(ctx, server)
		for _, c := range res.Candidates {
			fmt.Fprintf(w, "  candidate: %s (%s=%s, ~%d results)\n", c.Label, c.Strategy, c.ID, c.EstimateTotal)
		}
		for _, warn := range res.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warn)
		}
		if len(res.Candidates) == 0 {
			fmt.Fprintf(w, "  no candidates found\n")
		}

		result.Resolutions = append(result.Resolutions, res)
		result.Candidates += len(res.Candidates)
		result.Warnings += len(res.Warnings)
	}

	fmt.Fprintf(w, "\nResolved %d server(s): %d candidate(s), %d warning(s)\n",
		len(result.Resolutions), result.Candidates, result.Warnings)
	return result, nil
}
