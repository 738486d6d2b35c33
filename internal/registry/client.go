// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry implements the Crossref REST API client shared by every
// stage that talks to the registry. One client owns request construction,
// contact identification, pacing, and retry for all endpoint families.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/preprint-census/internal/httputil"
	"github.com/pdiddy/preprint-census/pkg/types"
)

const (
	defaultBaseURL   = "https://api.crossref.org"
	defaultTimeout   = 60 * time.Second
	defaultPacing    = 500 * time.Millisecond
	defaultUserAgent = "preprint-census/0.1"
)

// FilterPostedContent restricts works to the registry's preprint work type.
// Every count and sample in the pipeline carries it.
const FilterPostedContent = "type:posted-content"

// StatusError reports a non-2xx registry response that was not retried
// away: permanent statuses immediately, transient ones after the retry
// budget is exhausted.
type StatusError struct {
	Status int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("registry returned HTTP %d for %s", e.Status, e.URL)
}

// Transient reports whether the status was retryable (the request failed
// only after exhausting attempts) rather than a permanent rejection.
func (e *StatusError) Transient() bool { return httputil.Transient(e.Status) }

// Client calls the registry API. The pacing limiter spaces requests, so
// a shared client keeps the pipeline under the configured request rate.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	mailto     string
	plusToken  string
	maxRetries int
	retryBase  time.Duration
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// New builds a client from cfg. Zero values fall back to defaults: 60s
// timeout, 500ms pacing and retry base, 5 attempts,
// https://api.crossref.org. A configured contact address is appended to
// the User-Agent and sent as the mailto parameter on every request.
func New(cfg types.RegistryConfig, log zerolog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pacing := cfg.Pacing
	if pacing <= 0 {
		pacing = defaultPacing
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if cfg.Mailto != "" {
		userAgent += " (mailto:" + cfg.Mailto + ")"
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		userAgent:  userAgent,
		mailto:     cfg.Mailto,
		plusToken:  cfg.PlusToken,
		maxRetries: cfg.MaxRetries,
		retryBase:  cfg.RetryBase,
		limiter:    rate.NewLimiter(rate.Every(pacing), 1),
		log:        log,
	}
}

// get performs one paced GET against path, retries transient failures,
// and returns the raw message field of the response envelope.
func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if params == nil {
		params = url.Values{}
	}
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}

	reqURL := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.plusToken != "" {
		req.Header.Set("Crossref-Plus-API-Token", "Bearer "+c.plusToken)
	}

	c.log.Debug().Str("url", reqURL).Msg("registry request")

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries, c.retryBase)
	if err != nil {
		return nil, fmt.Errorf("registry request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Status: resp.StatusCode, URL: reqURL}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("parsing registry response: %w", err)
	}
	return env.Message, nil
}

// Registry API JSON structures.
type envelope struct {
	Message json.RawMessage `json:"message"`
}
