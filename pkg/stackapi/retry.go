package stackapi

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/fivetwenty-io/stackapi/internal/constants"
)

// ConflictRetrier re-runs a unit of work that failed with 409 Conflict.
//
// A retrier holds configuration only; the attempt counter lives in each
// RetryOnConflict call, so one retrier may be shared by concurrent callers.
type ConflictRetrier struct {
	maxAttempts int
	delay       time.Duration
	logger      Logger
}

// RetryOption configures a ConflictRetrier.
type RetryOption func(*ConflictRetrier)

// WithMaxAttempts sets how many retries follow the initial attempt.
// Negative values are treated as 0 (one attempt, no retries).
func WithMaxAttempts(maxAttempts int) RetryOption {
	return func(r *ConflictRetrier) {
		r.maxAttempts = max(maxAttempts, 0)
	}
}

// WithDelay sets the fixed wait between attempts.
func WithDelay(delay time.Duration) RetryOption {
	return func(r *ConflictRetrier) {
		r.delay = max(delay, 0)
	}
}

// WithRetryLogger logs every scheduled retry.
func WithRetryLogger(logger Logger) RetryOption {
	return func(r *ConflictRetrier) {
		r.logger = logger
	}
}

// NewConflictRetrier creates a retrier with 5 retries and a 2s delay unless overridden.
func NewConflictRetrier(opts ...RetryOption) *ConflictRetrier {
	retrier := &ConflictRetrier{
		maxAttempts: constants.DefaultConflictRetryMax,
		delay:       constants.DefaultConflictRetryDelay,
	}

	for _, opt := range opts {
		opt(retrier)
	}

	return retrier
}

// MaxAttempts returns the retry budget.
func (r *ConflictRetrier) MaxAttempts() int {
	return r.maxAttempts
}

// Delay returns the wait between attempts.
func (r *ConflictRetrier) Delay() time.Duration {
	return r.delay
}

// Do runs fn, retrying it on conflict.
func (r *ConflictRetrier) Do(ctx context.Context, fn func(context.Context) error) error {
	_, err := RetryOnConflict(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})

	return err
}

// RetryOnConflict invokes fn and re-invokes it after the retrier's delay while
// it fails with a RemoteError whose status is 409, up to MaxAttempts retries.
// Any other error is returned at once, without waiting. Attempts never overlap.
// A nil retrier uses the defaults.
func RetryOnConflict[T any](ctx context.Context, r *ConflictRetrier, fn func(context.Context) (T, error)) (T, error) {
	if r == nil {
		r = NewConflictRetrier()
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++

		result, err := fn(ctx)
		if err != nil && !IsConflict(err) {
			return result, backoff.Permanent(err)
		}

		return result, err
	}

	notify := func(err error, next time.Duration) {
		if r.logger == nil {
			return
		}

		r.logger.Warn("Conflict from remote call, retrying", map[string]interface{}{
			"attempt":      attempt,
			"max_attempts": r.maxAttempts,
			"delay":        next.String(),
			"error":        err.Error(),
		})
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(r.delay)),
		backoff.WithMaxTries(uint(r.maxAttempts)+1), //nolint:gosec // maxAttempts is never negative
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)

	// The final try may still carry the permanent marker.
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}

	return result, err
}
