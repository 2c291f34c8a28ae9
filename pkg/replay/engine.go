// Package replay turns monthly kline archives into a single stream ordered by
// the time each kline becomes observable.
package replay

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/c9s/kfeed/pkg/archive"
	"github.com/c9s/kfeed/pkg/metrics"
	"github.com/c9s/kfeed/pkg/types"
)

type Option func(e *Engine)

// WithClock replaces time.Now, which decides the last fully elapsed month.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine replays archived klines of one or more subscriptions.
//
// History is stateless. Stream keeps a cursor and a status so that an
// interrupted stream resumes right after the last delivered kline of each pair.
type Engine struct {
	store     archive.Store
	timeRange types.TimeRange
	now       func() time.Time

	mu     sync.Mutex
	status Status

	// cursor is the open time of the last emitted kline minus one
	cursor optional.Option[int64]

	// delivered is the open time of the last emitted kline per pair
	delivered map[types.Subscription]int64
}

func NewEngine(store archive.Store, timeRange types.TimeRange, options ...Option) *Engine {
	e := &Engine{
		store:     store,
		timeRange: timeRange,
		now:       time.Now,
		status:    StatusInitializing,
		cursor:    optional.None[int64](),
		delivered: make(map[types.Subscription]int64),
	}

	for _, opt := range options {
		opt(e)
	}

	e.publishStatus(StatusInitializing)
	return e
}

func (e *Engine) TimeRange() types.TimeRange {
	return e.timeRange
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Cursor is the latest open time emitted so far minus one millisecond,
// None when the stream has not started or has completed. A wider interval
// closing after narrower ones has an earlier open time and leaves the cursor
// where it is.
func (e *Engine) Cursor() optional.Option[int64] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// Reset forgets the stream progress regardless of the current status.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.setStatus(StatusInitializing)
	e.clearCursor()
}

func (e *Engine) setStatus(status Status) {
	e.status = status
	e.publishStatus(status)
}

func (e *Engine) publishStatus(status Status) {
	for _, s := range statuses {
		v := 0.0
		if s == status {
			v = 1.0
		}
		metrics.ReplayStatusMetrics.WithLabelValues(s.String()).Set(v)
	}
}

func (e *Engine) clearCursor() {
	e.cursor = optional.None[int64]()
	e.delivered = make(map[types.Subscription]int64)
	metrics.ReplayCursorMetrics.Set(-1)
}

// History replays the pairs over the given range. Klines are filtered by open
// time within [From, To] and emitted by open time plus interval, ties broken
// by the order of pairs. Archive units are resolved one month at a time, so a
// failing month only surfaces after every earlier month has been emitted.
func (e *Engine) History(ctx context.Context, pairs []types.Subscription, timeRange types.TimeRange) iter.Seq2[types.KLineEvent, error] {
	return func(yield func(types.KLineEvent, error) bool) {
		_ = e.replay(ctx, pairs, timeRange, nil, func(event types.KLineEvent, err error) bool {
			return yield(event, err)
		})
	}
}

// Stream replays the pairs over the engine's range, advancing the cursor as
// klines are delivered. Stopping the iteration early keeps the progress and
// the next Stream call continues after the last delivered kline of each pair.
// A failure moves the status to ERROR and keeps the cursor, completion moves
// it to STOPPED and clears the cursor.
func (e *Engine) Stream(ctx context.Context, pairs []types.Subscription) iter.Seq2[types.KLineEvent, error] {
	return func(yield func(types.KLineEvent, error) bool) {
		e.mu.Lock()
		e.setStatus(StatusRunning)
		after := make(map[types.Subscription]int64, len(e.delivered))
		for pair, t := range e.delivered {
			after[pair] = t
		}
		e.mu.Unlock()

		timeRange := e.timeRange
		if from, ok := resumeFrom(pairs, after); ok {
			timeRange.From = from
		}

		err := e.replay(ctx, pairs, timeRange, after, func(event types.KLineEvent, err error) bool {
			if err != nil {
				return yield(event, err)
			}

			e.mu.Lock()
			e.delivered[types.Subscription{Symbol: event.Symbol, Interval: event.Interval}] = event.KLine.Time
			cursor := advanceCursor(e.cursor, event.KLine.Time-1)
			e.cursor = optional.Some(cursor)
			e.mu.Unlock()

			metrics.ReplayCursorMetrics.Set(float64(cursor))
			metrics.ReplayEmittedKLinesMetrics.WithLabelValues(event.Symbol.String(), event.Interval.String()).Inc()
			return yield(event, nil)
		})

		e.mu.Lock()
		defer e.mu.Unlock()

		switch {
		case errors.Is(err, errStopped):
		case err != nil:
			log.WithError(err).Errorf("replay failed at cursor %d", e.cursor.TakeOr(-1))
			e.setStatus(StatusError)
		default:
			e.setStatus(StatusStopped)
			e.clearCursor()
		}
	}
}

// advanceCursor never moves the cursor backwards.
func advanceCursor(cursor optional.Option[int64], next int64) int64 {
	if cursor.IsNone() {
		return next
	}
	return max(cursor.Unwrap(), next)
}

// resumeFrom is the earliest instant still needed when every pair has delivered before.
func resumeFrom(pairs []types.Subscription, after map[types.Subscription]int64) (time.Time, bool) {
	if len(pairs) == 0 {
		return time.Time{}, false
	}

	var earliest int64
	for i, pair := range pairs {
		t, ok := after[pair]
		if !ok {
			return time.Time{}, false
		}

		if i == 0 || t < earliest {
			earliest = t
		}
	}

	return time.UnixMilli(earliest + 1).UTC(), true
}

var errStopped = errors.New("replay stopped by consumer")

// replay walks the months of the range and emits each month's merged klines.
// Klines with an open time at or before after[pair] are skipped. It returns
// errStopped when emit asks to stop, or the error already handed to emit.
func (e *Engine) replay(
	ctx context.Context,
	pairs []types.Subscription,
	timeRange types.TimeRange,
	after map[types.Subscription]int64,
	emit func(types.KLineEvent, error) bool,
) error {
	fail := func(err error) error {
		emit(types.KLineEvent{}, err)
		return err
	}

	if err := types.ValidateSubscriptions(pairs); err != nil {
		return fail(err)
	}

	months, end := monthRange(timeRange.From, timeRange.EndOr(e.now()), e.now())
	from, to := timeRange.From.UnixMilli(), end.UnixMilli()

	for _, month := range months {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		batches := make([][]types.KLineEvent, len(pairs))
		for i, pair := range pairs {
			key := archive.NewUnitKey(pair.Symbol, pair.Interval, month)
			log.Infof("replay: loading %s", key)

			klines, err := archive.ReadThrough(ctx, e.store, key)
			if err != nil {
				return fail(err)
			}

			batch, err := filterBatch(pair, klines, from, to, after)
			if err != nil {
				return fail(errors.Wrapf(err, "%s", key))
			}
			batches[i] = batch
		}

		if !mergeBatches(batches, func(event types.KLineEvent) bool {
			return emit(event, nil)
		}) {
			return errStopped
		}
	}

	return nil
}

func filterBatch(pair types.Subscription, klines []types.KLine, from, to int64, after map[types.Subscription]int64) ([]types.KLineEvent, error) {
	last, resume := after[pair]

	batch := make([]types.KLineEvent, 0, len(klines))
	for i, k := range klines {
		if i > 0 && k.Time <= klines[i-1].Time {
			return nil, errors.Wrapf(types.ErrReplayFault, "kline %d is not after kline %d", k.Time, klines[i-1].Time)
		}

		if k.Time < from || k.Time > to {
			continue
		}

		if resume && k.Time <= last {
			continue
		}

		batch = append(batch, types.KLineEvent{Symbol: pair.Symbol, KLine: k, Interval: pair.Interval})
	}
	return batch, nil
}
