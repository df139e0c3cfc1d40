package graph

import (
	"context"
	"strings"
	"time"
)

// RetryPolicy defines how to handle node failures.
type RetryPolicy struct {
	MaxRetries      int
	BackoffStrategy BackoffStrategy
	RetryableErrors []string
}

// BackoffStrategy defines different backoff strategies.
type BackoffStrategy int

const (
	FixedBackoff BackoffStrategy = iota
	ExponentialBackoff
	LinearBackoff
)

// executeNodeWithRetry executes a node with retry logic based on the retry policy.
func (r *StateRunnable[S]) executeNodeWithRetry(ctx context.Context, node Node[S], state S) (S, error) {
	var lastErr error
	var zero S

	maxAttempts := 1
	if r.graph.retryPolicy != nil {
		maxAttempts = r.graph.retryPolicy.MaxRetries + 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := node.Function(ctx, state)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if r.graph.retryPolicy != nil && attempt < maxAttempts-1 && r.isRetryableError(err) {
			delay := r.calculateBackoffDelay(attempt)
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return zero, ctx.Err()
				}
			}
			continue
		}
		break
	}

	return zero, lastErr
}

// isRetryableError checks if an error is retryable based on the retry policy.
func (r *StateRunnable[S]) isRetryableError(err error) bool {
	if r.graph.retryPolicy == nil {
		return false
	}

	errorStr := err.Error()
	for _, pattern := range r.graph.retryPolicy.RetryableErrors {
		if strings.Contains(errorStr, pattern) {
			return true
		}
	}
	return false
}

// calculateBackoffDelay calculates the delay for retry based on the backoff strategy.
func (r *StateRunnable[S]) calculateBackoffDelay(attempt int) time.Duration {
	if r.graph.retryPolicy == nil {
		return 0
	}

	baseDelay := time.Second

	switch r.graph.retryPolicy.BackoffStrategy {
	case FixedBackoff:
		return baseDelay
	case ExponentialBackoff:
		// 1s, 2s, 4s, 8s, ...
		return baseDelay * time.Duration(1<<attempt)
	case LinearBackoff:
		// 1s, 2s, 3s, 4s, ...
		return baseDelay * time.Duration(attempt+1)
	default:
		return baseDelay
	}
}
