package backoff

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds the number of attempts of an operation.
type Policy struct {
	// Attempts includes the first call, at least one attempt is always made.
	Attempts uint64

	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}

	retries := uint64(0)
	if p.Attempts > 1 {
		retries = p.Attempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
}

// Retry runs op until it succeeds, returns a permanent error or the policy is
// exhausted. notify is called before every retry and may be nil.
func Retry(ctx context.Context, policy Policy, op backoff.Operation, notify backoff.Notify) error {
	return backoff.RetryNotify(op, policy.backOff(ctx), notify)
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
