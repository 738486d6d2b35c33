// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/preprint-census/pkg/types"
)

func TestMemberLookup(t *testing.T) {
	var gotPath string
	body := `{"status":"ok","message":{
		"id":246,
		"primary-name":"Cold Spring Harbor Laboratory",
		"location":"1 Bungtown Road Cold Spring Harbor NY 11724 United States"
	}}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, body)
	}))
	defer ts.Close()

	c := testClient(ts, types.RegistryConfig{})
	m, err := c.Member(context.Background(), "246")
	if err != nil {
		t.Fatalf("Member: %v", err)
	}

	if gotPath != "/members/246" {
		t.Errorf("path = %q, want %q", gotPath, "/members/246")
	}
	if m.PrimaryName != "Cold Spring Harbor Laboratory" {
		t.Errorf("PrimaryName = %q", m.PrimaryName)
	}
	if !strings.Contains(string(m.Raw), "Bungtown Road") {
		t.Errorf("Raw = %s, should keep the location field", m.Raw)
	}
}

func TestMemberLookupFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := testClient(ts, types.RegistryConfig{})
	if _, err := c.Member(context.Background(), "999999"); err == nil {
		t.Fatal("expected error for unknown member")
	}
}
