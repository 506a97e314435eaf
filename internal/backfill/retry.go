package backfill

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const maxRetryDelay = 30 * time.Second

// retry runs fn until it succeeds, MaxRetries retries are used up or ctx ends.
// Context errors returned by fn are not retried.
func (r *Runner) retry(ctx context.Context, op string, fn func(context.Context) error) error {
	maxRetries := r.cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.RetryBackoff
	if b.InitialInterval <= 0 {
		b.InitialInterval = 100 * time.Millisecond
	}
	b.MaxInterval = maxRetryDelay
	b.MaxElapsedTime = 0
	b.Multiplier = 2.0

	operation := func() error {
		err := fn(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		return err
	}

	attempt := 0
	notify := func(err error, next time.Duration) {
		attempt++
		r.logger.Warn("rpc call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", next),
			zap.Error(err),
		)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)
	return backoff.RetryNotify(operation, policy, notify)
}
