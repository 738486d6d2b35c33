// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the preprint-census pipeline:
// roster rows, resolved candidates, selections, and stage configuration.
package types

import (
	"encoding/json"
	"fmt"
)

// Strategy identifies how a candidate registry identity was found.
type Strategy string

const (
	// StrategyISSN matches a declared ISSN directly.
	StrategyISSN Strategy = "issn"
	// StrategyPrefix matches a declared DOI prefix.
	StrategyPrefix Strategy = "prefix"
	// StrategyMember matches a declared registry member ID.
	StrategyMember Strategy = "member"
	// StrategyTitleISSN matches an ISSN discovered through a title search.
	StrategyTitleISSN Strategy = "title-issn"
	// StrategyContainerTitle matches works by container-title text query.
	StrategyContainerTitle Strategy = "container-title"
)

// ServerInput is one roster row describing a preprint server to census.
// Multi-valued fields hold the `;`-separated CSV cells already split.
type ServerInput struct {
	// Name is the human-supplied server name. Required; rosters
	// deduplicate on it, first occurrence wins.
	Name string `json:"server_name" yaml:"server_name"`

	// ISSNL, ISSNPrint, and ISSNElectronic are declared ISSNs, any of
	// which may be empty.
	ISSNL          string `json:"issn_l,omitempty" yaml:"issn_l,omitempty"`
	ISSNPrint      string `json:"issn_print,omitempty" yaml:"issn_print,omitempty"`
	ISSNElectronic string `json:"issn_electronic,omitempty" yaml:"issn_electronic,omitempty"`

	// DOIPrefixes lists declared DOI prefixes (e.g. "10.1101").
	DOIPrefixes []string `json:"doi_prefixes,omitempty" yaml:"doi_prefixes,omitempty"`

	// MemberID is the registry member identifier (e.g. "246").
	MemberID string `json:"crossref_member_id,omitempty" yaml:"crossref_member_id,omitempty"`

	// TitleExact is the canonical venue title to search. Empty means
	// fall back to Name.
	TitleExact string `json:"title_exact,omitempty" yaml:"title_exact,omitempty"`

	// TitleVariants lists alternative titles to search.
	TitleVariants []string `json:"title_variants,omitempty" yaml:"title_variants,omitempty"`

	// Notes is free text carried through to the export summary.
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ISSNs returns the declared ISSNs in column order (linking, print,
// electronic) with empties and duplicates removed.
func (s ServerInput) ISSNs() []string {
	var out []string
	seen := make(map[string]bool)
	for _, issn := range []string{s.ISSNL, s.ISSNPrint, s.ISSNElectronic} {
		if issn == "" || seen[issn] {
			continue
		}
		seen[issn] = true
		out = append(out, issn)
	}
	return out
}

// Title returns the exact title to search, defaulting to the server name.
func (s ServerInput) Title() string {
	if s.TitleExact != "" {
		return s.TitleExact
	}
	return s.Name
}

// Candidate is one possible registry identity for a preprint server.
type Candidate struct {
	// Strategy names how this candidate was found.
	Strategy Strategy `json:"strategy" yaml:"strategy"`

	// ID is the identifier within the strategy: an ISSN, a DOI prefix,
	// a member ID, or the queried title text for container-title matches.
	ID string `json:"id" yaml:"id"`

	// Label is a human-readable description shown during selection.
	Label string `json:"label" yaml:"label"`

	// EstimateTotal is the registry's posted-content count for this
	// identity at resolution time.
	EstimateTotal int `json:"estimate_total" yaml:"estimate_total"`

	// VenueMeta is the raw journal document attached by ISSN and title
	// strategies. Opaque; persisted verbatim in exports.
	VenueMeta json.RawMessage `json:"venue_meta,omitempty" yaml:"-"`

	// MemberMeta is the raw member document attached by the member
	// strategy. Opaque.
	MemberMeta json.RawMessage `json:"member_meta,omitempty" yaml:"-"`
}

// Key returns the identity used for deduplication and selection.
func (c Candidate) Key() SelectionKey {
	return SelectionKey{Strategy: c.Strategy, ID: c.ID}
}

// SelectionKey names a confirmed candidate by its (strategy, id) identity.
type SelectionKey struct {
	Strategy Strategy `json:"strategy" yaml:"strategy"`
	ID       string   `json:"id" yaml:"id"`
}

// String renders the key in the strategy=id form accepted by CLI flags.
func (k SelectionKey) String() string {
	return string(k.Strategy) + "=" + k.ID
}

// SortMode selects how sampled records are ordered by the registry.
type SortMode string

const (
	// SortLatest returns the most recently published records first.
	SortLatest SortMode = "latest"
	// SortMostCited returns the most cited records first.
	SortMostCited SortMode = "most-cited"
	// SortRandom over-fetches a pool and shuffles locally.
	SortRandom SortMode = "random"
)

// ParseSortMode validates a sort mode string.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case SortLatest, SortMostCited, SortRandom:
		return SortMode(s), nil
	}
	return "", fmt.Errorf("unknown sort mode %q (want latest, most-cited, or random)", s)
}
