package replay

import (
	"time"

	"github.com/c9s/kfeed/pkg/archive"
	"github.com/c9s/kfeed/pkg/types"
)

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// lastElapsedMonthEnd is the last millisecond of the most recent month that has fully elapsed at now.
func lastElapsedMonthEnd(now time.Time) time.Time {
	return monthStart(now).Add(-time.Millisecond)
}

// monthRange returns the first instant of every calendar month between from
// and to, with to clamped to the last fully elapsed month. The clamped end
// is returned as well since it also bounds the kline filter. The month of to
// is always included, as if to were extended to the end of its month.
func monthRange(from, to, now time.Time) (months []time.Time, end time.Time) {
	end = to.UTC()
	if limit := lastElapsedMonthEnd(now); end.After(limit) {
		end = limit
	}

	if from.After(end) {
		return nil, end
	}

	for m := monthStart(from); !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months, end
}

// Units lists the archive units a replay of the range reads, month by month.
func Units(pairs []types.Subscription, timeRange types.TimeRange, now time.Time) []archive.UnitKey {
	months, _ := monthRange(timeRange.From, timeRange.EndOr(now), now)

	keys := make([]archive.UnitKey, 0, len(months)*len(pairs))
	for _, month := range months {
		for _, pair := range pairs {
			keys = append(keys, archive.NewUnitKey(pair.Symbol, pair.Interval, month))
		}
	}
	return keys
}
