package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/c9s/kfeed/pkg/store"
	"github.com/c9s/kfeed/pkg/strategy/smacross"
	"github.com/c9s/kfeed/pkg/types"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("KFEED_TEST_DB", "klines.db")

	type args struct {
		configFile string
	}

	tests := []struct {
		name    string
		args    args
		wantErr bool
		f       func(t *testing.T, config *Config)
	}{
		{
			name: "backtest",
			args: args{configFile: "testdata/backtest.yaml"},
			f: func(t *testing.T, config *Config) {
				assert.Equal(t, types.ExchangeBinance, config.Exchange.Name)
				assert.Equal(t, "/tmp/kfeed-cache", config.Exchange.CacheDir)
				assert.Equal(t, types.BalanceMap{"USDT": 5000, "BTC": 0.1}, config.Backtest.Balances)

				timeRange, err := config.Backtest.TimeRange()
				require.NoError(t, err)
				assert.Equal(t, time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC), timeRange.From)
				assert.Equal(t, time.Date(2022, time.March, 31, 0, 0, 0, 0, time.UTC), timeRange.To.Unwrap())

				assert.Equal(t, store.RuntimeOptions{
					Interval:     types.Interval1h,
					ClearOnReset: true,
					History: map[types.Interval]store.HistoryOption{
						types.Interval1h: {History: 200, Required: 50},
						types.Interval1d: {History: 30, Required: 10},
					},
				}, config.Runtime)

				btcusdt := types.NewSymbol("BTC", "USDT")
				assert.Equal(t, []types.Subscription{
					{Symbol: btcusdt, Interval: types.Interval1h},
					{Symbol: btcusdt, Interval: types.Interval1d},
					{Symbol: types.NewSymbol("ETH", "USDT"), Interval: types.Interval1h},
				}, config.Subscriptions())

				assert.Equal(t, ":8080", config.Server.Bind)

				require.Len(t, config.Strategies, 1)
				assert.Equal(t, &smacross.Strategy{
					Symbol:     btcusdt,
					Interval:   types.Interval1h,
					FastWindow: 7,
					SlowWindow: 25,
					Amount:     100,
				}, config.Strategies[0])
			},
		},
		{
			name: "sql store with env",
			args: args{configFile: "testdata/sqlite.yaml"},
			f: func(t *testing.T, config *Config) {
				assert.Equal(t, types.ExchangeSimulation, config.Exchange.Name)
				assert.Equal(t, StoreTypeSQLite, config.Exchange.Store)
				assert.Equal(t, "file:klines.db?cache=shared", config.Exchange.DSN)
				assert.Equal(t, DefaultCacheDir, config.Exchange.CacheDir)
				assert.Nil(t, config.Backtest)
				assert.Empty(t, config.Strategies)
			},
		},
		{
			name:    "missing file",
			args:    args{configFile: "testdata/missing.yaml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := Load(tt.args.configFile)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, config)

			if tt.f != nil {
				tt.f(t, config)
			}
		})
	}
}

func TestLoadBytes_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "no pairs",
			content: "exchange: {name: binance}",
		},
		{
			name:    "unsupported interval",
			content: "pairs: [{symbol: BTC/USDT, intervals: 3m}]",
			wantErr: types.ErrInvalidInterval,
		},
		{
			name:    "unsupported exchange",
			content: "exchange: {name: ftx}\npairs: [{symbol: BTC/USDT, intervals: 1m}]",
		},
		{
			name:    "sql store without dsn",
			content: "exchange: {store: mysql}\npairs: [{symbol: BTC/USDT, intervals: 1m}]",
		},
		{
			name:    "end before start",
			content: "backtest: {startTime: \"2022-02-01\", endTime: \"2022-01-01\"}\npairs: [{symbol: BTC/USDT, intervals: 1m}]",
		},
		{
			name:    "unknown strategy",
			content: "pairs: [{symbol: BTC/USDT, intervals: 1m}]\nstrategies: [{nope: {}}]",
		},
		{
			name:    "invalid strategy",
			content: "pairs: [{symbol: BTC/USDT, intervals: 1m}]\nstrategies: [{smacross: {interval: 1m, fastWindow: 9, slowWindow: 3, amount: 1}}]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.content))
			assert.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestBacktest_TimeRange_Open(t *testing.T) {
	timeRange, err := Backtest{StartTime: "2022-01-01T08:00:00Z"}.TimeRange()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, time.January, 1, 8, 0, 0, 0, time.UTC), timeRange.From)
	assert.True(t, timeRange.To.IsNone())
}

func TestIntervals_Unmarshal(t *testing.T) {
	var pair Pair
	require.NoError(t, yaml.Unmarshal([]byte("{symbol: BTC/USDT, intervals: 1h}"), &pair))
	assert.Equal(t, Intervals{types.Interval1h}, pair.Intervals)

	require.NoError(t, yaml.Unmarshal([]byte("{symbol: BTC/USDT, intervals: [1m, 1d]}"), &pair))
	assert.Equal(t, Intervals{types.Interval1m, types.Interval1d}, pair.Intervals)

	require.NoError(t, json.Unmarshal([]byte(`{"symbol":"ETH/USDT","intervals":["5m"]}`), &pair))
	assert.Equal(t, types.NewSymbol("ETH", "USDT"), pair.Symbol)
	assert.Equal(t, Intervals{types.Interval5m}, pair.Intervals)

	assert.Error(t, yaml.Unmarshal([]byte("{intervals: {a: 1}}"), &pair))
}

func TestLoadStrategies(t *testing.T) {
	stash, err := loadStash([]byte(`
strategies:
- smacross: {symbol: BTC/USDT, interval: 1h, fastWindow: 3, slowWindow: 9, amount: 10}
`))
	require.NoError(t, err)

	strategies, err := loadStrategies(stash)
	require.NoError(t, err)
	require.Len(t, strategies, 1)
	assert.Equal(t, "smacross", strategies[0].ID())

	strategies, err = loadStrategies(Stash{
		"strategies": []interface{}{
			map[string]interface{}{
				"smacross": map[string]interface{}{"symbol": "ETH/USDT", "interval": "1d", "fastWindow": 2, "slowWindow": 5, "amount": 1},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, strategies, 1)
	assert.Equal(t, types.NewSymbol("ETH", "USDT"), strategies[0].(*smacross.Strategy).Symbol)

	_, err = loadStrategies(Stash{"strategies": []interface{}{"smacross"}})
	assert.Error(t, err)
}
