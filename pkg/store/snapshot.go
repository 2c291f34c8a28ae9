package store

import (
	"time"

	"github.com/c9s/kfeed/pkg/types"
)

// Snapshot is a read-only view of one key taken at a point in the feed.
// It is handed to strategies instead of exposing the runtime itself.
type Snapshot struct {
	Symbol   types.Symbol
	Interval types.Interval
	KLineSeries

	// Ready is IsReady at the time the snapshot was taken.
	Ready bool
}

// Snapshot captures the window of the given key.
func (r *Runtime) Snapshot(symbol types.Symbol, interval types.Interval) Snapshot {
	return Snapshot{
		Symbol:      symbol,
		Interval:    interval,
		KLineSeries: r.Series(symbol, interval),
		Ready:       r.IsReady(symbol, interval),
	}
}

// Timestamp is the open time of the newest kline in unix milliseconds, 0 when empty.
func (s Snapshot) Timestamp() int64 {
	return int64(s.Time.At(0).TakeOr(0))
}

func (s Snapshot) OpenTime() time.Time {
	return time.UnixMilli(s.Timestamp()).UTC()
}

// Day is the UTC day of the week of the newest kline.
func (s Snapshot) Day() time.Weekday {
	return s.OpenTime().Weekday()
}

// Month is the UTC month (1-12) of the newest kline.
func (s Snapshot) Month() time.Month {
	return s.OpenTime().Month()
}

func (s Snapshot) Year() int {
	return s.OpenTime().Year()
}
