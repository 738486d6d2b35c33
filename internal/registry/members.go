// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Member is the typed view of a registry member document. Raw holds the
// document verbatim.
type Member struct {
	PrimaryName string
	Raw         json.RawMessage
}

// Member fetches /members/{id} for a registry member (publisher).
func (c *Client) Member(ctx context.Context, id string) (*Member, error) {
	msg, err := c.get(ctx, "/members/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var mm memberMessage
	if err := json.Unmarshal(msg, &mm); err != nil {
		return nil, fmt.Errorf("parsing member response: %w", err)
	}
	return &Member{PrimaryName: mm.PrimaryName, Raw: msg}, nil
}

type memberMessage struct {
	PrimaryName string `json:"primary-name"`
}
