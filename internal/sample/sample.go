// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sample fetches bounded batches of posted-content records for
// resolved candidates.
package sample

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/pdiddy/preprint-census/internal/registry"
	"github.com/pdiddy/preprint-census/pkg/types"
)

// Random mode over-fetches a shuffle pool of min(50, max(10, 5N)) rows.
// The formula bounds request size; the exact values carry no meaning
// beyond that.
const (
	poolMin = 10
	poolMax = 50
)

// Params bound one sampling request.
type Params struct {
	// N is the maximum number of records returned. Zero or negative
	// skips the request entirely.
	N int

	// Mode orders the results. Empty leaves the registry's default
	// order and fetches exactly N rows.
	Mode types.SortMode

	// From and Until bound publication dates as YYYY-MM-DD; either may
	// be empty.
	From  string
	Until string
}

// Sampler fetches sample records through the registry client.
type Sampler struct {
	Client *registry.Client

	// Rand shuffles the random-mode pool. Nil uses the shared source;
	// tests inject a seeded one.
	Rand *rand.Rand
}

// PoolSize returns how many rows random mode over-fetches for n.
func PoolSize(n int) int {
	pool := 5 * n
	if pool < poolMin {
		pool = poolMin
	}
	if pool > poolMax {
		pool = poolMax
	}
	return pool
}

// Query translates a candidate and params into the works query the
// sample fetch will issue.
func Query(cand types.Candidate, p Params) registry.WorksQuery {
	q := registry.WorksQuery{Filters: []string{registry.FilterPostedContent}}

	switch cand.Strategy {
	case types.StrategyISSN, types.StrategyTitleISSN:
		q.Filters = append(q.Filters, "issn:"+cand.ID)
	case types.StrategyPrefix:
		q.Filters = append(q.Filters, "prefix:"+cand.ID)
	case types.StrategyMember:
		q.Filters = append(q.Filters, "member:"+cand.ID)
	case types.StrategyContainerTitle:
		// No filter equivalent; the title goes through the text query.
		q.ContainerTitle = cand.ID
	}

	if p.From != "" {
		q.Filters = append(q.Filters, "from-pub-date:"+p.From)
	}
	if p.Until != "" {
		q.Filters = append(q.Filters, "until-pub-date:"+p.Until)
	}

	q.Rows = p.N
	switch p.Mode {
	case types.SortLatest:
		q.Sort = "published"
	case types.SortMostCited:
		q.Sort = "is-referenced-by-count"
	case types.SortRandom:
		q.Rows = PoolSize(p.N)
	}
	return q
}

// Sample fetches up to p.N posted-content records for cand. With
// p.N <= 0 it returns nil without touching the network. Random mode
// over-fetches a pool and shuffles locally before truncating.
func (s *Sampler) Sample(ctx context.Context, cand types.Candidate, p Params) ([]json.RawMessage, error) {
	if p.N <= 0 {
		return nil, nil
	}

	page, err := s.Client.Works(ctx, Query(cand, p))
	if err != nil {
		return nil, fmt.Errorf("fetching samples for %s: %w", cand.Key(), err)
	}

	items := page.Items
	if p.Mode == types.SortRandom && len(items) > 1 {
		shuffle := rand.Shuffle
		if s.Rand != nil {
			shuffle = s.Rand.Shuffle
		}
		shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	}
	if len(items) > p.N {
		items = items[:p.N]
	}
	return items, nil
}
