package archive

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Prefetch makes every unit present in the store, fetching missing ones with at
// most concurrency fetches in flight. A failed unit does not stop the others,
// all failures are returned combined. done is called once per unit, possibly
// from several goroutines.
func Prefetch(ctx context.Context, store Store, keys []UnitKey, concurrency int, done func(key UnitKey, err error)) error {
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		mu   sync.Mutex
		errs error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, key := range keys {
		g.Go(func() error {
			err := ensure(ctx, store, key)
			if err != nil {
				err = &UnavailableError{Unit: key, Err: err}

				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}

			if done != nil {
				done(key, err)
			}
			return nil
		})
	}

	_ = g.Wait()
	return errs
}

func ensure(ctx context.Context, store Store, key UnitKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	exists, err := store.Exists(ctx, key)
	if err != nil || exists {
		return err
	}

	return store.Fetch(ctx, key)
}
