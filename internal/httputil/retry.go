// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for the scraper.
package httputil

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff between
// attempts. Tests override this to avoid real sleeps.
var RetryBaseDelay = 500 * time.Millisecond

const defaultMaxRetries = 2

// RetryableStatus lists the response codes that are retried. Anything else,
// including other 4xx/5xx codes, is returned to the caller as-is.
var RetryableStatus = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
	522:                            true, // Cloudflare: connection timed out
	524:                            true, // Cloudflare: a timeout occurred
}

// DoWithRetry executes an HTTP request and retries on a RetryableStatus
// response or a transport error, with exponential backoff starting at
// RetryBaseDelay and doubling each attempt.
//
// A negative maxRetries uses the default (2); 0 disables retries. On each
// retried response the body is drained and closed before sleeping. If the
// context is cancelled the function returns ctx.Err(). After exhausting
// retries the last retryable response is returned so the caller can inspect
// it; a final transport error is returned as the error.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, log *slog.Logger) (*http.Response, error) {
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if attempt >= maxRetries || errors.Is(err, context.Canceled) {
				return nil, err
			}
			log.Debug("request failed, retrying", "url", req.URL.String(), "error", err, "attempt", attempt+1)
		} else {
			if !RetryableStatus[resp.StatusCode] || attempt >= maxRetries {
				return resp, nil
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			log.Debug("transient status, retrying", "url", req.URL.String(), "status", resp.StatusCode, "attempt", attempt+1)
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
