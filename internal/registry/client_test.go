// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/preprint-census/pkg/types"
)

// testClient builds a client against ts with fast pacing and backoff.
func testClient(ts *httptest.Server, cfg types.RegistryConfig) *Client {
	cfg.BaseURL = ts.URL
	if cfg.Pacing == 0 {
		cfg.Pacing = time.Millisecond
	}
	if cfg.RetryBase == 0 {
		cfg.RetryBase = time.Millisecond
	}
	c := New(cfg, zerolog.Nop())
	c.httpClient = ts.Client()
	return c
}

func okWorksHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

const emptyWorksJSON = `{"status":"ok","message":{"total-results":0,"items":[]}}`

// --- contact identification ---

func TestClientMailtoAndHeaders(t *testing.T) {
	var gotMailto, gotUA, gotToken string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMailto = r.URL.Query().Get("mailto")
		gotUA = r.Header.Get("User-Agent")
		gotToken = r.Header.Get("Crossref-Plus-API-Token")
		fmt.Fprint(w, emptyWorksJSON)
	}))
	defer ts.Close()

	c := testClient(ts, types.RegistryConfig{
		Mailto:    "census@example.org",
		PlusToken: "tok123",
	})
	_, err := c.Works(context.Background(), WorksQuery{Filters: []string{FilterPostedContent}})
	if err != nil {
		t.Fatalf("Works: %v", err)
	}

	if gotMailto != "census@example.org" {
		t.Errorf("mailto = %q, want %q", gotMailto, "census@example.org")
	}
	if !strings.Contains(gotUA, "preprint-census/") || !strings.Contains(gotUA, "mailto:census@example.org") {
		t.Errorf("User-Agent = %q, want tool name and mailto", gotUA)
	}
	if gotToken != "Bearer tok123" {
		t.Errorf("plus token header = %q, want %q", gotToken, "Bearer tok123")
	}
}

func TestClientWithoutContact(t *testing.T) {
	var hasMailto bool
	var gotToken string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasMailto = r.URL.Query().Has("mailto")
		gotToken = r.Header.Get("Crossref-Plus-API-Token")
		fmt.Fprint(w, emptyWorksJSON)
	}))
	defer ts.Close()

	c := testClient(ts, types.RegistryConfig{})
	_, err := c.Works(context.Background(), WorksQuery{})
	if err != nil {
		t.Fatalf("Works: %v", err)
	}

	if hasMailto {
		t.Error("mailto parameter sent without a configured contact")
	}
	if gotToken != "" {
		t.Errorf("plus token header = %q, want empty", gotToken)
	}
}

// --- retry behavior ---

func TestClientRetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, emptyWorksJSON)
	}))
	defer ts.Close()

	c := testClient(ts, types.RegistryConfig{MaxRetries: 5})
	_, err := c.Works(context.Background(), WorksQuery{})
	if err != nil {
		t.Fatalf("Works: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestClientExhaustsRetries(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := testClient(ts, types.RegistryConfig{MaxRetries: 3})
	_, err := c.Works(context.Background(), WorksQuery{})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.Status != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want 429", statusErr.Status)
	}
	if !statusErr.Transient() {
		t.Error("Transient() = false, want true for 429")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3 (total attempt budget)", got)
	}
}

func TestClientPermanentFailureSurfacesImmediately(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := testClient(ts, types.RegistryConfig{MaxRetries: 5})
	_, err := c.Works(context.Background(), WorksQuery{})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", statusErr.Status)
	}
	if statusErr.Transient() {
		t.Error("Transient() = true, want false for 404")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1 (no retry on permanent status)", got)
	}
}

// --- malformed responses ---

func TestClientMalformedJSON(t *testing.T) {
	ts := httptest.NewServer(okWorksHandler(`{not valid json`))
	defer ts.Close()

	c := testClient(ts, types.RegistryConfig{})
	_, err := c.Works(context.Background(), WorksQuery{})
	if err == nil {
		t.Fatal("expected JSON parse error")
	}
	if !strings.Contains(err.Error(), "parsing") {
		t.Errorf("error = %q, should mention parsing", err.Error())
	}
}
