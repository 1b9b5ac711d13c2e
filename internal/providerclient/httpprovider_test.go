package providerclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestDoWithRetry_RetryAfterCapAppliesAfterBackoffMultiplication
// exercises spec.md §4.2's "honour Retry-After, cap at a configured
// maximum": a large Retry-After header multiplied by the exponential
// backoff factor must still be clamped to cfg.MaxRetryAfter, not
// just the raw header value before multiplication.
func TestDoWithRetry_RetryAfterCapAppliesAfterBackoffMultiplication(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "100") // 100s, far larger than MaxRetryAfter
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewHTTPProvider("test", Config{
		BaseURL:       srv.URL,
		MaxRetries:    2,
		RetryDelay:    time.Millisecond,
		MaxRetryAfter: 20 * time.Millisecond,
	}, nil)

	start := time.Now()
	_, _, err := p.doWithRetry(context.Background(), "/path")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected an error after exhausting retries against a 429-only server")
	}
	// 2 retries at a capped ~20ms wait each should finish well under
	// one uncapped 100s sleep; generous bound to avoid flakiness.
	if elapsed > 2*time.Second {
		t.Fatalf("doWithRetry took %v, want the MaxRetryAfter cap to bound the wait, not the raw Retry-After header", elapsed)
	}
}
