// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryBaseDelay controls the first backoff duration after a transient
// response. Tests override this to avoid real sleeps.
var RetryBaseDelay = 500 * time.Millisecond

// backoffGrowth is the factor each successive backoff delay is
// multiplied by: 500ms, 800ms, 1.28s, 2.05s, ...
const backoffGrowth = 1.6

const defaultMaxRetries = 5

// Transient reports whether an HTTP status indicates a failure worth
// retrying: rate limiting (429) or a server-side error (500, 502, 503, 504).
// Every other non-2xx status is permanent and surfaces to the caller.
func Transient(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// DoWithRetry executes an HTTP request and retries transient responses
// with exponential backoff starting at baseDelay and growing by 1.6x
// per attempt. maxRetries is the total attempt budget; when it is 0 the
// default (5) is used, and a baseDelay of 0 falls back to RetryBaseDelay.
//
// On each transient response the body is drained and closed before
// sleeping. If the context is cancelled during a backoff wait the
// function returns ctx.Err(). After exhausting attempts the last
// transient response is returned so the caller can inspect its status.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, baseDelay time.Duration) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if baseDelay <= 0 {
		baseDelay = RetryBaseDelay
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !Transient(resp.StatusCode) {
			return resp, nil
		}

		// Exhausted attempts: return the transient response as-is.
		if attempt >= maxRetries-1 {
			return resp, nil
		}

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(float64(baseDelay) * math.Pow(backoffGrowth, float64(attempt)))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
