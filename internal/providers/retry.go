package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

const defaultMaxAttempts = 4

// retryInitialDelay is the first back-off interval; tests shorten it.
var retryInitialDelay = time.Second

type rateLimitError struct{}

func (e *rateLimitError) Error() string { return "rate limited" }

type serverError struct {
	statusCode int
	body       string
}

func (e *serverError) Error() string { return "server error: " + e.body }

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var ae *authError
	return errors.As(err, &ae)
}

func isRetryable(err error) bool {
	var rl *rateLimitError
	var se *serverError
	return errors.As(err, &rl) || errors.As(err, &se)
}

// withRetry runs fn with exponential back-off. Only rate-limit and server
// errors are retried; any other error is returned after the first attempt.
func withRetry[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	r := retry.New[T](retry.Config{
		MaxAttempts:   defaultMaxAttempts,
		InitialDelay:  retryInitialDelay,
		BackoffPolicy: retry.BackoffExponential,
	})

	var permanent error
	res, err := r.Do(ctx, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		if err != nil && !isRetryable(err) {
			permanent = err
			var zero T
			return zero, nil
		}
		return v, err
	})
	if permanent != nil {
		return res, permanent
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		return res, fmt.Errorf("after %d attempts: %w", defaultMaxAttempts, err)
	}
	return res, nil
}
