// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pdiddy/preprint-census/pkg/types"
)

const sampleJournalJSON = `{"status":"ok","message":{
	"title":"bioRxiv",
	"ISSN":["2692-8205"],
	"publisher":"Cold Spring Harbor Laboratory",
	"counts":{"total-dois":212345}
}}`

// --- single journal lookup ---

func TestJournalLookup(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, sampleJournalJSON)
	}))
	defer ts.Close()

	c := testClient(ts, types.RegistryConfig{})
	j, err := c.Journal(context.Background(), "2692-8205")
	if err != nil {
		t.Fatalf("Journal: %v", err)
	}

	if gotPath != "/journals/2692-8205" {
		t.Errorf("path = %q, want %q", gotPath, "/journals/2692-8205")
	}
	if j.Title != "bioRxiv" {
		t.Errorf("Title = %q, want %q", j.Title, "bioRxiv")
	}
	if diff := cmp.Diff([]string{"2692-8205"}, j.ISSN); diff != "" {
		t.Errorf("ISSN mismatch (-want +got):\n%s", diff)
	}
	// Raw keeps fields the typed view drops.
	if !strings.Contains(string(j.Raw), "Cold Spring Harbor Laboratory") {
		t.Errorf("Raw = %s, should keep the publisher field", j.Raw)
	}
}

func TestJournalNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := testClient(ts, types.RegistryConfig{})
	_, err := c.Journal(context.Background(), "0000-0000")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusNotFound {
		t.Fatalf("error = %v, want 404 *StatusError", err)
	}
}

// --- journal search ---

func TestSearchJournals(t *testing.T) {
	var gotQuery, gotRows string
	body := `{"status":"ok","message":{"items":[
		{"title":"bioRxiv","ISSN":["2692-8205"]},
		{"title":"BioRxiv Reviews","ISSN":["1111-2222","3333-4444"]}
	]}}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotRows = r.URL.Query().Get("rows")
		fmt.Fprint(w, body)
	}))
	defer ts.Close()

	c := testClient(ts, types.RegistryConfig{})
	journals, err := c.SearchJournals(context.Background(), "bioRxiv", 5)
	if err != nil {
		t.Fatalf("SearchJournals: %v", err)
	}

	if gotQuery != "bioRxiv" {
		t.Errorf("query = %q, want %q", gotQuery, "bioRxiv")
	}
	if gotRows != "5" {
		t.Errorf("rows = %q, want %q", gotRows, "5")
	}
	if len(journals) != 2 {
		t.Fatalf("len(journals) = %d, want 2", len(journals))
	}
	if journals[0].Title != "bioRxiv" {
		t.Errorf("journals[0].Title = %q", journals[0].Title)
	}
	if diff := cmp.Diff([]string{"1111-2222", "3333-4444"}, journals[1].ISSN); diff != "" {
		t.Errorf("journals[1].ISSN mismatch (-want +got):\n%s", diff)
	}
	// Each item's raw document travels with its typed view.
	if !strings.Contains(string(journals[1].Raw), "BioRxiv Reviews") {
		t.Errorf("journals[1].Raw = %s, should hold the item document", journals[1].Raw)
	}
}

func TestSearchJournalsEmpty(t *testing.T) {
	ts := httptest.NewServer(okWorksHandler(`{"status":"ok","message":{"items":[]}}`))
	defer ts.Close()

	c := testClient(ts, types.RegistryConfig{})
	journals, err := c.SearchJournals(context.Background(), "no such venue", 5)
	if err != nil {
		t.Fatalf("SearchJournals: %v", err)
	}
	if len(journals) != 0 {
		t.Errorf("len(journals) = %d, want 0", len(journals))
	}
}
