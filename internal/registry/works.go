// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// WorksQuery selects works from the /works endpoint. Filters are
// key:value pairs joined with commas (e.g. "issn:2692-8205",
// FilterPostedContent). ContainerTitle adds a bibliographic text query
// for venues that resolve only by name.
type WorksQuery struct {
	Filters        []string
	ContainerTitle string

	// Rows is the page size; values below 1 are clamped to 1.
	Rows int

	// Sort is the registry sort field ("published",
	// "is-referenced-by-count"); results come back descending. Empty
	// keeps the API's default order.
	Sort string
}

// WorksPage is one page of /works results. Items are opaque work
// documents, never interpreted, only persisted.
type WorksPage struct {
	TotalResults int
	Items        []json.RawMessage
}

// Works fetches one page of works matching q.
func (c *Client) Works(ctx context.Context, q WorksQuery) (WorksPage, error) {
	params := url.Values{}
	if len(q.Filters) > 0 {
		params.Set("filter", strings.Join(q.Filters, ","))
	}
	if q.ContainerTitle != "" {
		params.Set("query.container-title", q.ContainerTitle)
	}
	rows := q.Rows
	if rows < 1 {
		rows = 1
	}
	params.Set("rows", strconv.Itoa(rows))
	if q.Sort != "" {
		params.Set("sort", q.Sort)
		params.Set("order", "desc")
	}

	msg, err := c.get(ctx, "/works", params)
	if err != nil {
		return WorksPage{}, err
	}

	var wm worksMessage
	if err := json.Unmarshal(msg, &wm); err != nil {
		return WorksPage{}, fmt.Errorf("parsing works response: %w", err)
	}
	return WorksPage{TotalResults: wm.TotalResults, Items: wm.Items}, nil
}

// WorksCount returns the registry's total-results estimate for q. The
// request asks for a single row and reads only the count.
func (c *Client) WorksCount(ctx context.Context, q WorksQuery) (int, error) {
	q.Rows = 1
	q.Sort = ""
	page, err := c.Works(ctx, q)
	if err != nil {
		return 0, err
	}
	return page.TotalResults, nil
}

type worksMessage struct {
	TotalResults int               `json:"total-results"`
	Items        []json.RawMessage `json:"items"`
}
