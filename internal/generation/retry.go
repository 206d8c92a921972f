package generation

import (
	"context"
	"log/slog"
	"time"
)

const (
	maxAttempts = 3
	backoffStep = 400 * time.Millisecond
)

// RetryingGenerator wraps a Generator and re-attempts stream creation on
// transient provider errors. Fragments already emitted are never replayed:
// only the opening call is retried.
type RetryingGenerator struct {
	inner  Generator
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRetryingGenerator(inner Generator, logger *slog.Logger) *RetryingGenerator {
	return &RetryingGenerator{
		inner:  inner,
		logger: logger.With(slog.String("component", "generation.retry")),
		sleep:  sleepFor,
	}
}

func (r *RetryingGenerator) Generate(ctx context.Context, req Request) (<-chan Fragment, <-chan error, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		frags, errs, err := r.inner.Generate(ctx, req)
		if err == nil {
			return frags, errs, nil
		}
		lastErr = err
		if !IsTransient(err) || attempt == maxAttempts {
			break
		}
		delay := time.Duration(attempt) * backoffStep
		r.logger.Warn("generation attempt failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slogError(err))
		if err := r.sleep(ctx, delay); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, lastErr
}

func sleepFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
