package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/kfeed/pkg/archive"
	"github.com/c9s/kfeed/pkg/replay"
	"github.com/c9s/kfeed/pkg/types"
)

var btcusdt = types.NewSymbol("BTC", "USDT")

// 2022-01-01T00:00:00Z
const jan2022 = int64(1640995200000)

type memoryStore map[archive.UnitKey][]types.KLine

func (s memoryStore) Exists(_ context.Context, key archive.UnitKey) (bool, error) {
	_, ok := s[key]
	return ok, nil
}

func (s memoryStore) Read(_ context.Context, key archive.UnitKey) ([]types.KLine, error) {
	return s[key], nil
}

func (s memoryStore) Fetch(_ context.Context, key archive.UnitKey) error {
	return errors.New("404 Not Found")
}

type staticSymbols []types.Symbol

func (s staticSymbols) Symbols(context.Context) ([]types.Symbol, error) {
	return s, nil
}

func newExchange(t *testing.T, options Options) *Exchange {
	jan := time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
	store := memoryStore{
		archive.NewUnitKey(btcusdt, types.Interval1h, jan): {
			{Time: jan2022, Close: 100},
			{Time: jan2022 + 3_600_000, Close: 200},
			{Time: jan2022 + 7_200_000, Close: 300},
		},
	}

	engine := replay.NewEngine(store,
		types.NewTimeRange(jan, jan.AddDate(0, 1, 0).Add(-time.Millisecond)),
		replay.WithClock(func() time.Time { return jan.AddDate(0, 3, 0) }))
	return New(engine, options)
}

var subscriptions = []types.Subscription{{Symbol: btcusdt, Interval: types.Interval1h}}

func TestExchange_Defaults(t *testing.T) {
	ctx := context.Background()
	ex := newExchange(t, Options{})

	assert.Equal(t, types.ExchangeSimulation, ex.Name())

	balances, err := ex.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.BalanceMap{"USDT": 1000}, balances)

	// the returned map is a copy
	balances["USDT"] = 0
	balances, _ = ex.Balance(ctx)
	assert.Equal(t, 1000.0, balances["USDT"])

	now, err := ex.Time(ctx)
	require.NoError(t, err)
	assert.True(t, now.IsZero())

	ok, err := ex.CancelOrder(ctx, btcusdt, "sim-1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ex.SubmitOrder(ctx, btcusdt, types.SubmitOrder{Type: types.OrderTypeMarket, Side: types.SideTypeBuy, Quantity: 1})
	assert.Error(t, err)

	_, err = ex.Prices(ctx, btcusdt)
	assert.Error(t, err)

	assert.Equal(t, replay.StatusInitializing, ex.Status())
}

func TestExchange_StreamAndOrders(t *testing.T) {
	ctx := context.Background()
	ex := newExchange(t, Options{Balances: types.BalanceMap{"BTC": 0.5}})

	balances, _ := ex.Balance(ctx)
	assert.Equal(t, types.BalanceMap{"BTC": 0.5}, balances)

	for event, err := range ex.Stream(ctx, subscriptions) {
		require.NoError(t, err)
		if event.KLine.Close < 200 {
			continue
		}

		assert.Equal(t, replay.StatusRunning, ex.Status())

		now, err := ex.Time(ctx)
		require.NoError(t, err)
		assert.Equal(t, event.KLine.Time-1, now.UnixMilli())

		prices, err := ex.Prices(ctx, btcusdt)
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"BTCUSDT": 200}, prices)

		market, err := ex.SubmitOrder(ctx, btcusdt, types.SubmitOrder{Type: types.OrderTypeMarket, Side: types.SideTypeBuy, Quantity: 2})
		require.NoError(t, err)
		assert.Equal(t, &types.Position{
			ID:       "sim-1640998799999",
			Symbol:   btcusdt,
			Side:     types.SideTypeBuy,
			Quantity: 2,
			Price:    200,
			Time:     1640998799999,
		}, market)

		limit, err := ex.SubmitOrder(ctx, btcusdt, types.SubmitOrder{Type: types.OrderTypeLimit, Side: types.SideTypeSell, Quantity: 1, Price: 250})
		require.NoError(t, err)
		assert.Equal(t, 250.0, limit.Price)
		assert.Equal(t, 1.0, limit.Quantity)

		quote, err := ex.SubmitOrder(ctx, btcusdt, types.SubmitOrder{Type: types.OrderTypeMarket, Side: types.SideTypeBuy, Quantity: 3, Quote: true})
		require.NoError(t, err)
		assert.Equal(t, 600.0, quote.Quantity)
		assert.Equal(t, 200.0, quote.Price)
		break
	}

	symbols, err := ex.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Symbol{btcusdt}, symbols)

	ex.Reset()
	assert.Equal(t, replay.StatusInitializing, ex.Status())
	now, _ := ex.Time(ctx)
	assert.True(t, now.IsZero())
}

func TestExchange_StreamCompletes(t *testing.T) {
	ex := newExchange(t, Options{Symbols: staticSymbols{btcusdt, types.NewSymbol("ETH", "USDT")}})

	var closes []float64
	for event, err := range ex.Stream(context.Background(), subscriptions) {
		require.NoError(t, err)
		closes = append(closes, event.KLine.Close)
	}

	assert.Equal(t, []float64{100, 200, 300}, closes)
	assert.Equal(t, replay.StatusStopped, ex.Status())

	symbols, err := ex.Symbols(context.Background())
	require.NoError(t, err)
	assert.Len(t, symbols, 2)

	// the last observed close survives the end of the stream
	prices, err := ex.Prices(context.Background(), btcusdt)
	require.NoError(t, err)
	assert.Equal(t, 300.0, prices["BTCUSDT"])
}

func TestExchange_History(t *testing.T) {
	ex := newExchange(t, Options{})
	from := time.UnixMilli(jan2022 + 3_600_000)

	var n int
	for _, err := range ex.History(context.Background(), subscriptions, types.NewTimeRange(from, from)) {
		require.NoError(t, err)
		n++
	}

	assert.Equal(t, 1, n)
	assert.Equal(t, replay.StatusInitializing, ex.Status())
}

func TestExchange_StreamError(t *testing.T) {
	ex := newExchange(t, Options{})

	var streamErr error
	for _, err := range ex.Stream(context.Background(), []types.Subscription{{Symbol: types.NewSymbol("ETH", "USDT"), Interval: types.Interval1h}}) {
		streamErr = err
	}

	assert.ErrorIs(t, streamErr, types.ErrArchiveUnavailable)
	assert.Equal(t, replay.StatusError, ex.Status())
}
