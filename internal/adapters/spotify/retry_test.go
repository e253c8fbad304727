package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/ports"
)

func TestClientGetJSON(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int
		maxRetries   int
		wantAttempts int32
		wantStatus   int
		wantName     string
	}{
		{
			name:         "retries 503 then decodes",
			statuses:     []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusOK},
			maxRetries:   3,
			wantAttempts: 3,
			wantName:     "ok",
		},
		{
			name:         "404 is final",
			statuses:     []int{http.StatusNotFound},
			maxRetries:   3,
			wantAttempts: 1,
			wantStatus:   http.StatusNotFound,
		},
		{
			name:         "429 until exhausted",
			statuses:     []int{http.StatusTooManyRequests},
			maxRetries:   2,
			wantAttempts: 2,
			wantStatus:   http.StatusTooManyRequests,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(attempts.Add(1))
				status := tt.statuses[min(n, len(tt.statuses))-1]
				w.WriteHeader(status)
				if status == http.StatusOK {
					_, _ = w.Write([]byte(`{"name":"ok"}`))
				}
			}))
			defer ts.Close()

			client := NewClient(ts.Client(), Config{BaseURL: ts.URL, MaxRetries: tt.maxRetries, RetryBackoff: time.Millisecond})

			var out struct {
				Name string `json:"name"`
			}
			err := client.getJSON(context.Background(), ts.URL, &out)

			if got := attempts.Load(); got != tt.wantAttempts {
				t.Errorf("attempts: got %d, want %d", got, tt.wantAttempts)
			}
			if tt.wantStatus == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if out.Name != tt.wantName {
					t.Errorf("decoded name: got %q, want %q", out.Name, tt.wantName)
				}
				return
			}
			if !errors.Is(err, ports.ErrCatalogUnavailable) {
				t.Fatalf("error %v does not wrap ErrCatalogUnavailable", err)
			}
			var se *statusError
			if !errors.As(err, &se) || se.code != tt.wantStatus {
				t.Errorf("status error: got %v, want %d", err, tt.wantStatus)
			}
		})
	}
}

func TestClientGetJSON_CanceledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	client := NewClient(ts.Client(), Config{BaseURL: ts.URL, MaxRetries: 5, RetryBackoff: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var out struct{}
	err := client.getJSON(ctx, ts.URL, &out)
	if !errors.Is(err, context.DeadlineExceeded) || !errors.Is(err, ports.ErrCatalogUnavailable) {
		t.Fatalf("error = %v, want catalog unavailable wrapping deadline exceeded", err)
	}
}

func TestRetryDelay(t *testing.T) {
	c := &Client{baseBackoff: time.Second}
	tests := []struct {
		name       string
		attempt    int
		retryAfter time.Duration
		want       time.Duration
	}{
		{"first retry uses base", 1, 0, time.Second},
		{"doubles", 3, 0, 4 * time.Second},
		{"capped", 40, 0, maxBackoff},
		{"retry-after wins", 2, 7 * time.Second, 7 * time.Second},
		{"retry-after capped", 1, time.Hour, maxBackoff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.retryDelay(tt.attempt, tt.retryAfter); got != tt.want {
				t.Errorf("retryDelay(%d, %v) = %v, want %v", tt.attempt, tt.retryAfter, got, tt.want)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{"missing", "", 0},
		{"seconds", "2", 2 * time.Second},
		{"negative seconds", "-3", 0},
		{"garbage", "soon", 0},
		{"future date", now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{"past date", now.Add(-time.Minute).Format(http.TimeFormat), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRetryAfter(tt.header, now); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}
