// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Journal is the typed view of a registry journal document. Raw holds
// the document verbatim for persistence alongside the parsed fields.
type Journal struct {
	Title string
	ISSN  []string
	Raw   json.RawMessage
}

// Journal fetches /journals/{issn} for a single venue.
func (c *Client) Journal(ctx context.Context, issn string) (*Journal, error) {
	msg, err := c.get(ctx, "/journals/"+url.PathEscape(issn), nil)
	if err != nil {
		return nil, err
	}

	var jm journalMessage
	if err := json.Unmarshal(msg, &jm); err != nil {
		return nil, fmt.Errorf("parsing journal response: %w", err)
	}
	return &Journal{Title: jm.Title, ISSN: jm.ISSN, Raw: msg}, nil
}

// SearchJournals queries /journals by title text and returns up to rows
// matches in registry relevance order.
func (c *Client) SearchJournals(ctx context.Context, query string, rows int) ([]Journal, error) {
	if rows < 1 {
		rows = 1
	}
	params := url.Values{
		"query": {query},
		"rows":  {strconv.Itoa(rows)},
	}

	msg, err := c.get(ctx, "/journals", params)
	if err != nil {
		return nil, err
	}

	var lm journalListMessage
	if err := json.Unmarshal(msg, &lm); err != nil {
		return nil, fmt.Errorf("parsing journals response: %w", err)
	}

	journals := make([]Journal, 0, len(lm.Items))
	for _, item := range lm.Items {
		var jm journalMessage
		if err := json.Unmarshal(item, &jm); err != nil {
			return nil, fmt.Errorf("parsing journals response item: %w", err)
		}
		journals = append(journals, Journal{Title: jm.Title, ISSN: jm.ISSN, Raw: item})
	}
	return journals, nil
}

type journalMessage struct {
	Title string   `json:"title"`
	ISSN  []string `json:"ISSN"`
}

type journalListMessage struct {
	Items []json.RawMessage `json:"items"`
}
