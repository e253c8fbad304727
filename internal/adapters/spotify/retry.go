package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/ports"
	"github.com/ewilliams-labs/moodqueue/backend/internal/logging"
	"github.com/ewilliams-labs/moodqueue/backend/internal/metrics"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
	maxBackoff        = 30 * time.Second
)

// Attempt outcomes, as recorded in metrics.
const (
	attemptOK        = "ok"
	attemptRetry     = "retry"
	attemptRejected  = "rejected"
	attemptExhausted = "exhausted"
)

// statusError is a non-2xx catalog response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("spotify adapter: status %d", e.code)
}

// getJSON fetches rawURL and decodes a 2xx body into out. Transport errors,
// 429 and 5xx responses are retried with capped exponential backoff or the
// server's Retry-After. Every failure returned wraps
// ports.ErrCatalogUnavailable.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	attempts := c.maxRetries
	if attempts <= 0 {
		attempts = defaultMaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("%w: rate limit wait: %w", ports.ErrCatalogUnavailable, err)
			}
		}

		retryAfter, err := c.attempt(ctx, rawURL, out)
		if err == nil {
			metrics.RecordCatalogAttempt(attemptOK)
			return nil
		}
		lastErr = err

		var rejected *rejectedError
		if errors.As(err, &rejected) {
			metrics.RecordCatalogAttempt(attemptRejected)
			return fmt.Errorf("%w: %w", ports.ErrCatalogUnavailable, rejected.err)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%w: request canceled: %w", ports.ErrCatalogUnavailable, ctx.Err())
		}
		if attempt == attempts {
			break
		}

		metrics.RecordCatalogAttempt(attemptRetry)
		delay := c.retryDelay(attempt, retryAfter)
		logging.Ctx(ctx).Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("delay", delay).
			Msg("spotify request failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: request canceled: %w", ports.ErrCatalogUnavailable, ctx.Err())
		case <-timer.C:
		}
	}

	metrics.RecordCatalogAttempt(attemptExhausted)
	return fmt.Errorf("%w: gave up after %d attempts: %w", ports.ErrCatalogUnavailable, attempts, lastErr)
}

// rejectedError marks a failure that retrying cannot fix.
type rejectedError struct {
	err error
}

func (e *rejectedError) Error() string { return e.err.Error() }

// attempt performs one GET. A returned *rejectedError is final; any other
// error may be retried after the returned Retry-After hint.
func (c *Client) attempt(ctx context.Context, rawURL string, out any) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, &rejectedError{err: fmt.Errorf("spotify adapter: build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("spotify adapter: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()), &statusError{code: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return 0, &rejectedError{err: &statusError{code: resp.StatusCode}}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return 0, &rejectedError{err: fmt.Errorf("spotify adapter: decode response: %w", err)}
	}
	return 0, nil
}

// retryDelay doubles the base backoff per attempt up to maxBackoff. A
// positive Retry-After from the server wins, also capped.
func (c *Client) retryDelay(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return min(retryAfter, maxBackoff)
	}
	base := c.baseBackoff
	if base <= 0 {
		base = defaultBackoff
	}
	delay := base
	for i := 1; i < attempt && delay < maxBackoff; i++ {
		delay *= 2
	}
	return min(delay, maxBackoff)
}

// parseRetryAfter reads delay-seconds or an HTTP date relative to now.
func parseRetryAfter(header string, now time.Time) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(header); err == nil && when.After(now) {
		return when.Sub(now)
	}
	return 0
}
