package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

// scriptedProvider fails with errs in order, then succeeds with out.
type scriptedProvider struct {
	calls int
	errs  []error
	out   string
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	p.calls++
	if p.calls <= len(p.errs) {
		return "", p.errs[p.calls-1]
	}
	return p.out, nil
}

func (p *scriptedProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	return p.Generate(ctx, "", options...)
}

func TestGenerateWithRetrySucceedsFirstTry(t *testing.T) {
	p := &scriptedProvider{out: "the answer"}

	out, err := GenerateWithRetry(context.Background(), p, "prompt", 3)
	if err != nil {
		t.Fatalf("GenerateWithRetry returned error: %v", err)
	}
	if out != "the answer" {
		t.Fatalf("out = %q, want %q", out, "the answer")
	}
	if p.calls != 1 {
		t.Fatalf("provider called %d times, want 1", p.calls)
	}
}

func TestGenerateWithRetryStopsOnNonRetryableError(t *testing.T) {
	bad := &APIError{StatusCode: http.StatusBadRequest, Body: "malformed prompt"}
	p := &scriptedProvider{errs: []error{bad}, out: "never reached"}

	_, err := GenerateWithRetry(context.Background(), p, "prompt", 3)
	if !errors.Is(err, bad) {
		t.Fatalf("err = %v, want the 400 error", err)
	}
	if p.calls != 1 {
		t.Fatalf("provider called %d times after a 400, want 1", p.calls)
	}
}

func TestGenerateWithRetryReturnsLastErrorWhenExhausted(t *testing.T) {
	limited := &APIError{StatusCode: http.StatusTooManyRequests, Body: "rate limited"}
	p := &scriptedProvider{errs: []error{limited}}

	_, err := GenerateWithRetry(context.Background(), p, "prompt", 1)
	if !errors.Is(err, limited) {
		t.Fatalf("err = %v, want the 429 error", err)
	}
	if p.calls != 1 {
		t.Fatalf("provider called %d times with attempts=1, want 1", p.calls)
	}
}

func TestGenerateWithRetryClampsAttempts(t *testing.T) {
	p := &scriptedProvider{out: "ok"}

	out, err := GenerateWithRetry(context.Background(), p, "prompt", 0)
	if err != nil {
		t.Fatalf("GenerateWithRetry returned error: %v", err)
	}
	if out != "ok" || p.calls != 1 {
		t.Fatalf("out = %q, calls = %d; want ok after exactly one call", out, p.calls)
	}
}

func TestGenerateWithRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	limited := &APIError{StatusCode: http.StatusServiceUnavailable, Body: "draining"}
	p := &scriptedProvider{errs: []error{limited, limited}}

	_, err := GenerateWithRetry(ctx, p, "prompt", 3)
	if err == nil {
		t.Fatal("GenerateWithRetry returned nil error under cancelled context")
	}
	if p.calls != 1 {
		t.Fatalf("provider called %d times under cancelled context, want 1", p.calls)
	}
}

func TestAPIErrorRetryable(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusNotFound, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
	}

	for _, tc := range cases {
		e := &APIError{StatusCode: tc.status}
		if got := e.Retryable(); got != tc.want {
			t.Fatalf("Retryable() for %d = %v, want %v", tc.status, got, tc.want)
		}
	}
}
