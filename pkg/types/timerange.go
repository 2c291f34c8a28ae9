package types

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"
)

const DateFormat = "2006-01-02"

// TimeRange is an inclusive open-time range. A missing To means "up to now".
type TimeRange struct {
	From time.Time
	To   optional.Option[time.Time]
}

func NewTimeRange(from, to time.Time) TimeRange {
	return TimeRange{From: from, To: optional.Some(to)}
}

// Since creates an open-ended range starting at from.
func Since(from time.Time) TimeRange {
	return TimeRange{From: from, To: optional.None[time.Time]()}
}

// EndOr returns the range end, or fallback when the range is open-ended.
func (r TimeRange) EndOr(fallback time.Time) time.Time {
	return r.To.TakeOr(fallback)
}

func (r TimeRange) String() string {
	if r.To.IsNone() {
		return fmt.Sprintf("%s ~ now", r.From.Format(time.RFC3339))
	}

	return fmt.Sprintf("%s ~ %s", r.From.Format(time.RFC3339), r.To.Unwrap().Format(time.RFC3339))
}
