// Package archive resolves monthly kline archive units through a local
// read-through cache.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/c9s/kfeed/pkg/metrics"
	"github.com/c9s/kfeed/pkg/types"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks . Store

// Store is a cache of archive units.
type Store interface {
	// Exists reports whether the unit is present locally. A present unit is trusted as complete.
	Exists(ctx context.Context, key UnitKey) (bool, error)

	// Read decodes every kline of the unit in open time order.
	Read(ctx context.Context, key UnitKey) ([]types.KLine, error)

	// Fetch retrieves the unit from its upstream source and persists it locally.
	Fetch(ctx context.Context, key UnitKey) error
}

// UnitKey identifies one calendar month of klines of one symbol and interval.
type UnitKey struct {
	Symbol   types.Symbol
	Interval types.Interval
	Year     int
	Month    time.Month
}

func NewUnitKey(symbol types.Symbol, interval types.Interval, t time.Time) UnitKey {
	t = t.UTC()
	return UnitKey{Symbol: symbol, Interval: interval, Year: t.Year(), Month: t.Month()}
}

// Name is the archive base name, e.g. BTCUSDT-1m-2022-01
func (k UnitKey) Name() string {
	return fmt.Sprintf("%s-%s-%04d-%02d", k.Symbol.String(), k.Interval, k.Year, int(k.Month))
}

func (k UnitKey) String() string {
	return k.Name()
}

// Start is the first instant of the month in UTC.
func (k UnitKey) Start() time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last millisecond of the month in UTC.
func (k UnitKey) End() time.Time {
	return k.Start().AddDate(0, 1, 0).Add(-time.Millisecond)
}

// UnavailableError is returned when a unit could neither be read nor fetched.
type UnavailableError struct {
	Unit UnitKey
	Err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("archive %s unavailable: %v", e.Unit, e.Err)
}

func (e *UnavailableError) Unwrap() []error {
	return []error{types.ErrArchiveUnavailable, e.Err}
}

// ReadThrough reads the unit, fetching it first when it is not present locally.
// Any failure is reported as an *UnavailableError.
func ReadThrough(ctx context.Context, store Store, key UnitKey) ([]types.KLine, error) {
	exists, err := store.Exists(ctx, key)
	if err != nil {
		return nil, &UnavailableError{Unit: key, Err: errors.Wrap(err, "exists")}
	}

	if !exists {
		log.Infof("fetching archive %s", key)

		if err := store.Fetch(ctx, key); err != nil {
			metrics.ArchiveFetchMetrics.WithLabelValues(storeName(store), key.Symbol.String(), key.Interval.String(), "error").Inc()
			return nil, &UnavailableError{Unit: key, Err: errors.Wrap(err, "fetch")}
		}

		metrics.ArchiveFetchMetrics.WithLabelValues(storeName(store), key.Symbol.String(), key.Interval.String(), "ok").Inc()
	}

	klines, err := store.Read(ctx, key)
	if err != nil {
		return nil, &UnavailableError{Unit: key, Err: errors.Wrap(err, "read")}
	}

	metrics.ArchiveReadKLinesMetrics.WithLabelValues(storeName(store), key.Symbol.String(), key.Interval.String()).Add(float64(len(klines)))
	return klines, nil
}

func storeName(store Store) string {
	switch store.(type) {
	case *FileStore:
		return "file"
	case *SQLStore:
		return "sql"
	default:
		return "custom"
	}
}
