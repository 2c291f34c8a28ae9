package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/kfeed/pkg/types"
)

var btcusdt = types.NewSymbol("btc", "usdt")

func kline(minute int64) types.KLine {
	return types.KLine{
		Time:   minute * 60_000,
		Open:   float64(minute),
		High:   float64(minute) + 1,
		Low:    float64(minute) - 1,
		Close:  float64(minute) + 0.5,
		Volume: 10,
	}
}

func assertEqualLengths(t *testing.T, s KLineSeries) {
	n := s.Time.Length()
	assert.Equal(t, n, s.Open.Length())
	assert.Equal(t, n, s.High.Length())
	assert.Equal(t, n, s.Low.Length())
	assert.Equal(t, n, s.Close.Length())
	assert.Equal(t, n, s.Volume.Length())
}

func TestRuntime_PushEvictsOldest(t *testing.T) {
	r := NewRuntime(RuntimeOptions{
		History: map[types.Interval]HistoryOption{
			types.Interval1m: {History: 3},
		},
	})

	for m := int64(0); m < 4; m++ {
		r.Push(btcusdt, kline(m), types.Interval1m)
		assertEqualLengths(t, r.Series(btcusdt, types.Interval1m))
	}

	s := r.Series(btcusdt, types.Interval1m)
	require.Equal(t, 3, s.Length())
	assert.Equal(t, []float64{3, 2, 1}, []float64(s.Open))
	assert.Equal(t, []float64{180_000, 120_000, 60_000}, []float64(s.Time))
	assert.Equal(t, s.Close.At(0), s.Close.At(-3))
}

func TestRuntime_DefaultHistory(t *testing.T) {
	r := NewRuntime(RuntimeOptions{})
	for m := int64(0); m < DefaultHistory+5; m++ {
		r.Push(btcusdt, kline(m), types.Interval5m)
	}

	s := r.Series(btcusdt, types.Interval5m)
	assert.Equal(t, DefaultHistory, s.Length())
	assert.Equal(t, float64(DefaultHistory+4), s.Open.At(0).Unwrap())
	assert.Equal(t, 5.0, s.Open.At(-1).Unwrap())
}

func TestRuntime_SeriesOfUnknownKey(t *testing.T) {
	r := NewRuntime(RuntimeOptions{})
	s := r.Series(btcusdt, types.Interval1h)

	assert.Equal(t, 0, s.Length())
	assertEqualLengths(t, s)
	assert.True(t, s.Close.At(0).IsNone())
}

func TestRuntime_SeriesIsACopy(t *testing.T) {
	r := NewRuntime(RuntimeOptions{})
	r.Push(btcusdt, kline(1), types.Interval1m)

	s := r.Series(btcusdt, types.Interval1m)
	r.Push(btcusdt, kline(2), types.Interval1m)

	assert.Equal(t, 1, s.Length())
	assert.Equal(t, 2, r.Series(btcusdt, types.Interval1m).Length())
}

func TestRuntime_IsReady(t *testing.T) {
	ethusdt := types.NewSymbol("eth", "usdt")
	r := NewRuntime(RuntimeOptions{
		History: map[types.Interval]HistoryOption{
			types.Interval1m: {History: 5, Required: 3},
			types.Interval1h: {History: 2, Required: 1},
		},
	})

	assert.False(t, r.IsReady(btcusdt, types.Interval1m))

	for m := int64(0); m < 3; m++ {
		r.Push(btcusdt, kline(m), types.Interval1m)
	}
	// the 1h window does not exist yet
	assert.False(t, r.IsReady(btcusdt, types.Interval1m))

	r.Push(btcusdt, kline(0), types.Interval1h)
	assert.True(t, r.IsReady(btcusdt, types.Interval1m))
	assert.True(t, r.IsReady(btcusdt, types.Interval1h))
	assert.False(t, r.IsReady(ethusdt, types.Interval1m))

	// stays ready as more klines arrive
	for m := int64(3); m < 20; m++ {
		r.Push(btcusdt, kline(m), types.Interval1m)
		assert.True(t, r.IsReady(btcusdt, types.Interval1m))
	}
}

func TestRuntime_IsReady_FixedInterval(t *testing.T) {
	r := NewRuntime(RuntimeOptions{Interval: types.Interval1h})
	r.Push(btcusdt, kline(0), types.Interval1m)
	r.Push(btcusdt, kline(0), types.Interval1h)

	assert.False(t, r.IsReady(btcusdt, types.Interval1m))
	assert.True(t, r.IsReady(btcusdt, types.Interval1h))
}

func TestRuntime_Reset(t *testing.T) {
	t.Run("keeps windows", func(t *testing.T) {
		r := NewRuntime(RuntimeOptions{})
		r.Push(btcusdt, kline(1), types.Interval1m)

		symbol, interval, ok := r.Current()
		require.True(t, ok)
		assert.Equal(t, btcusdt, symbol)
		assert.Equal(t, types.Interval1m, interval)

		r.Reset()
		_, _, ok = r.Current()
		assert.False(t, ok)
		assert.Equal(t, 1, r.Series(btcusdt, types.Interval1m).Length())
		assert.Len(t, r.Keys(), 1)
	})

	t.Run("clear on reset", func(t *testing.T) {
		r := NewRuntime(RuntimeOptions{ClearOnReset: true})
		r.Push(btcusdt, kline(1), types.Interval1m)
		r.Reset()

		assert.Equal(t, 0, r.Series(btcusdt, types.Interval1m).Length())
		assert.Empty(t, r.Keys())
	})
}

func TestRuntime_ConcurrentReaders(t *testing.T) {
	r := NewRuntime(RuntimeOptions{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for m := int64(0); m < 500; m++ {
			r.Push(btcusdt, kline(m), types.Interval1m)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			assertEqualLengths(t, r.Series(btcusdt, types.Interval1m))
			r.IsReady(btcusdt, types.Interval1m)
		}
	}()
	wg.Wait()

	assert.Equal(t, DefaultHistory, r.Series(btcusdt, types.Interval1m).Length())
}

func TestSnapshot(t *testing.T) {
	r := NewRuntime(RuntimeOptions{
		History: map[types.Interval]HistoryOption{types.Interval1d: {Required: 2}},
	})

	empty := r.Snapshot(btcusdt, types.Interval1d)
	assert.Equal(t, int64(0), empty.Timestamp())
	assert.False(t, empty.Ready)

	// 2022-02-28 is a Monday
	day := time.Date(2022, time.February, 28, 0, 0, 0, 0, time.UTC)
	r.Push(btcusdt, types.KLine{Time: day.Add(-24 * time.Hour).UnixMilli(), Close: 1}, types.Interval1d)
	r.Push(btcusdt, types.KLine{Time: day.UnixMilli(), Close: 2}, types.Interval1d)

	s := r.Snapshot(btcusdt, types.Interval1d)
	assert.True(t, s.Ready)
	assert.Equal(t, day.UnixMilli(), s.Timestamp())
	assert.Equal(t, time.Monday, s.Day())
	assert.Equal(t, time.February, s.Month())
	assert.Equal(t, 2022, s.Year())
	assert.Equal(t, 2.0, s.Close.At(0).Unwrap())
	assert.Equal(t, btcusdt, s.Symbol)
}
