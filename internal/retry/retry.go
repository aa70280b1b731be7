// Package retry implements the retry policies applied around remote
// calls. Policies are explicit values passed to each call site rather
// than a hidden framework default.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/pokedexlabs/pokedex/internal/httpclient"
)

// Backoff defaults.
const (
	baseBackoff = 1 * time.Second
	maxBackoff  = 30 * time.Second

	readRetries  = 3
	writeRetries = 2
)

// Policy configures retry behavior for a class of remote calls.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// RetryStatus decides whether an HTTP status warrants a retry.
	// Transport failures (status 0) are always retried.
	RetryStatus func(status int) bool
}

// ReadPolicy is the policy for read queries: up to 3 retries, no retries
// on 4xx except 408 and 429.
func ReadPolicy() Policy {
	return Policy{
		MaxRetries: readRetries,
		BaseDelay:  baseBackoff,
		MaxDelay:   maxBackoff,
		RetryStatus: func(status int) bool {
			if status >= 400 && status < 500 {
				return status == http.StatusRequestTimeout || status == http.StatusTooManyRequests
			}
			return true
		},
	}
}

// WritePolicy is the policy for mutations: up to 2 retries, never on 4xx.
func WritePolicy() Policy {
	return Policy{
		MaxRetries: writeRetries,
		BaseDelay:  baseBackoff,
		MaxDelay:   maxBackoff,
		RetryStatus: func(status int) bool {
			return status < 400 || status >= 500
		},
	}
}

// None disables retries entirely.
func None() Policy {
	return Policy{MaxRetries: 0}
}

// shouldRetry inspects an error and decides whether another attempt makes
// sense under this policy. Only typed HTTP errors are retried; anything
// else (decode failures, sentinel errors) is final.
func (p Policy) shouldRetry(err error) bool {
	apiErr, ok := httpclient.AsAPIError(err)
	if !ok {
		return false
	}
	if apiErr.Status == 0 {
		return true
	}
	if p.RetryStatus == nil {
		return false
	}
	return p.RetryStatus(apiErr.Status)
}

// delay picks the wait before the next attempt. A server-provided
// Retry-After on the error wins over computed backoff, capped at
// MaxDelay like everything else.
func (p Policy) delay(attempt int, err error) time.Duration {
	if apiErr, ok := httpclient.AsAPIError(err); ok && apiErr.RetryAfter > 0 {
		limit := p.MaxDelay
		if limit <= 0 {
			limit = maxBackoff
		}
		if apiErr.RetryAfter > limit {
			return limit
		}
		return apiErr.RetryAfter
	}
	return p.backoff(attempt)
}

// backoff calculates the delay before the given attempt using exponential
// backoff with ±25% jitter, capped at MaxDelay.
func (p Policy) backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = baseBackoff
	}
	limit := p.MaxDelay
	if limit <= 0 {
		limit = maxBackoff
	}

	d := float64(base) * math.Pow(2, float64(attempt))
	if d > float64(limit) {
		d = float64(limit)
	}

	// Jitter spreads out simultaneous retries.
	jitterRange := d * 0.25
	d += (rand.Float64() * 2 * jitterRange) - jitterRange //nolint:gosec // Non-crypto jitter

	if d < float64(time.Millisecond) {
		d = float64(time.Millisecond)
	}
	if d > float64(limit) {
		d = float64(limit)
	}
	return time.Duration(d)
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Do executes fn, retrying per the policy.
func Do(ctx context.Context, p Policy, fn func() error) error {
	_, err := DoValue(ctx, p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoValue executes fn and returns its result, retrying per the policy.
func DoValue[T any](ctx context.Context, p Policy, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		result, lastErr = fn()
		if lastErr == nil {
			return result, nil
		}
		if !p.shouldRetry(lastErr) {
			return result, lastErr
		}
		if attempt == p.MaxRetries {
			break
		}
		if err := sleep(ctx, p.delay(attempt, lastErr)); err != nil {
			var zero T
			return zero, err
		}
	}

	return result, lastErr
}
