package httpx

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestIsRetryableHTTPStatus(t *testing.T) {
	retryable := []int{429, 500, 502, 503, 504}
	for _, status := range retryable {
		if !IsRetryableHTTPStatus(status) {
			t.Fatalf("IsRetryableHTTPStatus(%d): want=true", status)
		}
	}
	terminal := []int{200, 201, 301, 400, 401, 403, 404, 409, 422}
	for _, status := range terminal {
		if IsRetryableHTTPStatus(status) {
			t.Fatalf("IsRetryableHTTPStatus(%d): want=false", status)
		}
	}
}

type statusErr struct{ code int }

func (e *statusErr) Error() string       { return fmt.Sprintf("http %d", e.code) }
func (e *statusErr) HTTPStatusCode() int { return e.code }

func TestIsRetryableError(t *testing.T) {
	if IsRetryableError(nil) {
		t.Fatalf("nil error must not be retryable")
	}
	if IsRetryableError(context.Canceled) || IsRetryableError(context.DeadlineExceeded) {
		t.Fatalf("context errors must not be retryable")
	}
	if !IsRetryableError(&statusErr{code: 503}) {
		t.Fatalf("503 status error should be retryable")
	}
	if IsRetryableError(&statusErr{code: 400}) {
		t.Fatalf("400 status error must not be retryable")
	}
	if !IsRetryableError(fmt.Errorf("read tcp: connection reset by peer")) {
		t.Fatalf("connection reset should be retryable")
	}
	if IsRetryableError(fmt.Errorf("invalid request body")) {
		t.Fatalf("plain error must not be retryable")
	}
}

func TestRetryAfterDuration(t *testing.T) {
	h := http.Header{}
	if got := RetryAfterDuration(h); got != 0 {
		t.Fatalf("absent header: want=0 got=%v", got)
	}

	h.Set("Retry-After", "7")
	if got := RetryAfterDuration(h); got != 7*time.Second {
		t.Fatalf("seconds form: want=7s got=%v", got)
	}

	h.Set("Retry-After", time.Now().Add(30*time.Second).UTC().Format(http.TimeFormat))
	got := RetryAfterDuration(h)
	if got <= 0 || got > 30*time.Second {
		t.Fatalf("date form: got=%v", got)
	}

	h.Set("Retry-After", "garbage")
	if got := RetryAfterDuration(h); got != 0 {
		t.Fatalf("unparseable header: want=0 got=%v", got)
	}
}

func TestBackoff(t *testing.T) {
	base := 1 * time.Second
	max := 10 * time.Second
	if got := Backoff(base, 0, max); got != 1*time.Second {
		t.Fatalf("attempt 0: want=1s got=%v", got)
	}
	if got := Backoff(base, 2, max); got != 4*time.Second {
		t.Fatalf("attempt 2: want=4s got=%v", got)
	}
	if got := Backoff(base, 10, max); got != max {
		t.Fatalf("attempt 10: want=%v got=%v", max, got)
	}
}

func TestJitterSleepCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := JitterSleep(ctx, time.Minute); err == nil {
		t.Fatalf("JitterSleep: expected context error")
	}
	if err := JitterSleep(context.Background(), 0); err != nil {
		t.Fatalf("JitterSleep zero duration: %v", err)
	}
}
