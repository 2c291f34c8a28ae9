package types

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"
)

type Interval string

// Milliseconds returns the bar duration in the unit used by kline open times.
// Unsupported intervals return 0.
func (i Interval) Milliseconds() int64 {
	return SupportedIntervals[i]
}

func (i Interval) Duration() time.Duration {
	return time.Duration(i.Milliseconds()) * time.Millisecond
}

// Validate returns ErrInvalidInterval when the interval is not in the supported set.
func (i Interval) Validate() error {
	if _, ok := SupportedIntervals[i]; !ok {
		return errors.Wrapf(ErrInvalidInterval, "interval %q", string(i))
	}

	return nil
}

func (i *Interval) UnmarshalJSON(b []byte) (err error) {
	var a string
	err = json.Unmarshal(b, &a)
	if err != nil {
		return err
	}

	*i = Interval(a)
	return
}

func (i *Interval) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var a string
	if err := unmarshal(&a); err != nil {
		return err
	}

	*i = Interval(a)
	return nil
}

func (i Interval) String() string {
	return string(i)
}

type IntervalSlice []Interval

func (s IntervalSlice) Sort() {
	sort.Slice(s, func(i, j int) bool {
		return s[i].Milliseconds() < s[j].Milliseconds()
	})
}

var Interval1m = Interval("1m")
var Interval5m = Interval("5m")
var Interval15m = Interval("15m")
var Interval30m = Interval("30m")
var Interval1h = Interval("1h")
var Interval2h = Interval("2h")
var Interval4h = Interval("4h")
var Interval6h = Interval("6h")
var Interval8h = Interval("8h")
var Interval12h = Interval("12h")
var Interval1d = Interval("1d")

const minuteMs = int64(60 * 1000)

// SupportedIntervals maps every supported interval to its duration in milliseconds
var SupportedIntervals = map[Interval]int64{
	Interval1m:  minuteMs,
	Interval5m:  5 * minuteMs,
	Interval15m: 15 * minuteMs,
	Interval30m: 30 * minuteMs,
	Interval1h:  60 * minuteMs,
	Interval2h:  60 * 2 * minuteMs,
	Interval4h:  60 * 4 * minuteMs,
	Interval6h:  60 * 6 * minuteMs,
	Interval8h:  60 * 8 * minuteMs,
	Interval12h: 60 * 12 * minuteMs,
	Interval1d:  60 * 24 * minuteMs,
}

// SortedIntervals returns the supported intervals from the finest to the coarsest.
func SortedIntervals() IntervalSlice {
	var intervals IntervalSlice
	for interval := range SupportedIntervals {
		intervals = append(intervals, interval)
	}

	intervals.Sort()
	return intervals
}
