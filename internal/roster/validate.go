// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package roster

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/preprint-census/pkg/types"
)

var validate = validator.New()

// prefixPattern matches registry DOI prefixes: "10.1101".
var prefixPattern = regexp.MustCompile(`^10\.\d{4,9}$`)

// memberPattern matches registry member IDs, which are plain integers.
var memberPattern = regexp.MustCompile(`^\d+$`)

// Problem describes one advisory roster issue. Problems never block
// resolution; a malformed identifier simply finds no candidates.
type Problem struct {
	Server string
	Field  string
	Value  string
	Reason string
}

func (p Problem) String() string {
	if p.Value == "" {
		return fmt.Sprintf("%s: %s %s", p.Server, p.Field, p.Reason)
	}
	return fmt.Sprintf("%s: %s %q %s", p.Server, p.Field, p.Value, p.Reason)
}

// Validate inspects roster rows and returns advisory problems: empty
// names (those rows are dropped by Dedupe), ISSNs that fail the format
// or checksum, non-numeric member IDs, and DOI prefixes that do not
// look like registry prefixes.
func Validate(servers []types.ServerInput) []Problem {
	var problems []Problem
	for i, s := range servers {
		if s.Name == "" {
			problems = append(problems, Problem{
				Server: fmt.Sprintf("row %d", i+1),
				Field:  "server_name",
				Reason: "is empty; row will be dropped",
			})
			continue
		}

		issns := []struct{ field, value string }{
			{"issn_l", s.ISSNL},
			{"issn_print", s.ISSNPrint},
			{"issn_electronic", s.ISSNElectronic},
		}
		for _, f := range issns {
			if f.value == "" {
				continue
			}
			if err := validate.Var(f.value, "issn"); err != nil {
				problems = append(problems, Problem{
					Server: s.Name, Field: f.field, Value: f.value,
					Reason: "is not a valid ISSN",
				})
			}
		}

		if s.MemberID != "" && !memberPattern.MatchString(s.MemberID) {
			problems = append(problems, Problem{
				Server: s.Name, Field: "crossref_member_id", Value: s.MemberID,
				Reason: "is not numeric",
			})
		}

		for _, prefix := range s.DOIPrefixes {
			if !prefixPattern.MatchString(prefix) {
				problems = append(problems, Problem{
					Server: s.Name, Field: "doi_prefixes", Value: prefix,
					Reason: "does not look like a DOI prefix",
				})
			}
		}
	}
	return problems
}
