// Package httpx holds shared retry helpers for the hand-rolled REST
// clients (twilio, paystack, sendgrid, whisper).
package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// IsRetryableHTTPStatus reports whether a status code is worth
// retrying: 429 and the transient 5xx family.
func IsRetryableHTTPStatus(status int) bool {
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

// IsRetryableError reports whether a transport-level error is
// transient (timeouts, temporary network failures, closed conns).
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var sc interface{ HTTPStatusCode() int }
	if errors.As(err, &sc) {
		return IsRetryableHTTPStatus(sc.HTTPStatusCode())
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range []string{
		"connection reset",
		"connection refused",
		"broken pipe",
		"unexpected eof",
		"no such host",
		"tls handshake timeout",
	} {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

// RetryAfterDuration parses a Retry-After header (seconds or HTTP
// date). Returns 0 when the header is absent or unparseable.
func RetryAfterDuration(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// Backoff returns an exponential backoff for the given attempt
// (0-based), capped at max.
func Backoff(base time.Duration, attempt int, max time.Duration) time.Duration {
	d := base << uint(attempt)
	if d > max || d <= 0 {
		d = max
	}
	return d
}

// JitterSleep sleeps for d plus up to 25% jitter, returning early if
// ctx is done.
func JitterSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	jit := time.Duration(rand.Int63n(int64(d)/4 + 1))
	t := time.NewTimer(d + jit)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
