package llm

import (
	"context"
	"errors"
	"time"
)

// GenerateWithRetry calls Generate up to attempts times with doubling backoff
// between tries. Non-retryable API errors and context cancellation fail
// immediately; the last error is returned once attempts are exhausted.
func GenerateWithRetry(ctx context.Context, p LLMProvider, prompt string, attempts int, options ...Option) (string, error) {
	if attempts < 1 {
		attempts = 1
	}

	backoff := 2 * time.Second
	var lastErr error

	for i := 0; i < attempts; i++ {
		out, err := p.Generate(ctx, prompt, options...)
		if err == nil {
			return out, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return "", err
		}
		if ctx.Err() != nil {
			return "", err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return "", lastErr
}
