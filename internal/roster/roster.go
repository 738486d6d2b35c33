// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package roster parses and normalizes the preprint-server inputs a
// census runs over: a CSV table, freeform pasted names, or both.
package roster

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/preprint-census/pkg/types"
)

// Normalize applies NFKC normalization and collapses whitespace runs to
// single spaces. Full-width and compatibility characters in pasted names
// fold to their canonical forms so equal-looking names compare equal.
func Normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}

// SplitList splits a `;`-separated cell into normalized, non-empty parts.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := Normalize(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Slug returns a directory stem for a server name: lowercased with
// whitespace runs replaced by hyphens. Empty names map to "server".
func Slug(name string) string {
	fields := strings.Fields(strings.ToLower(Normalize(name)))
	if len(fields) == 0 {
		return "server"
	}
	return strings.Join(fields, "-")
}

// ParseCSV reads roster rows from a CSV table. Columns are matched by
// header name; missing columns read as empty, unknown columns are
// ignored, and a UTF-8 BOM on the first header cell is stripped. Rows
// come back unfiltered so Validate can report empty names before
// Dedupe drops them.
func ParseCSV(r io.Reader) ([]types.ServerInput, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty roster: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading roster header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "﻿")
		}
		index[strings.ToLower(Normalize(name))] = i
	}

	field := func(rec []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return Normalize(rec[i])
	}

	var servers []types.ServerInput
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading roster row: %w", err)
		}
		servers = append(servers, types.ServerInput{
			Name:           field(rec, "server_name"),
			ISSNL:          field(rec, "issn_l"),
			ISSNPrint:      field(rec, "issn_print"),
			ISSNElectronic: field(rec, "issn_electronic"),
			DOIPrefixes:    SplitList(field(rec, "doi_prefixes")),
			MemberID:       field(rec, "crossref_member_id"),
			TitleExact:     field(rec, "title_exact"),
			TitleVariants:  SplitList(field(rec, "title_variants")),
			Notes:          field(rec, "notes"),
		})
	}
	return servers, nil
}

// ParseNames reads freeform server names, one per line; blank lines are
// skipped. Each name becomes a roster row whose exact title is the name
// itself.
func ParseNames(r io.Reader) ([]types.ServerInput, error) {
	scanner := bufio.NewScanner(r)
	var servers []types.ServerInput
	for scanner.Scan() {
		name := Normalize(scanner.Text())
		if name == "" {
			continue
		}
		servers = append(servers, types.ServerInput{Name: name, TitleExact: name})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading names: %w", err)
	}
	return servers, nil
}

// Dedupe drops rows with empty names and repeated names, keeping the
// first occurrence of each name and the input order.
func Dedupe(servers []types.ServerInput) []types.ServerInput {
	seen := make(map[string]bool, len(servers))
	out := make([]types.ServerInput, 0, len(servers))
	for _, s := range servers {
		if s.Name == "" || seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		out = append(out, s)
	}
	return out
}
