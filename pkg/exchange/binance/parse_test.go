package binance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/kfeed/pkg/types"
)

func TestParseKLineEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    *KLineEvent
		wantErr bool
	}{
		{
			name: "combined stream",
			payload: `{"stream":"btcusdt@kline_1m","data":{"e":"kline","E":1640995260123,"s":"BTCUSDT",
				"k":{"t":1640995200000,"T":1640995259999,"s":"BTCUSDT","i":"1m",
				"o":"46216.93","c":"46250.00","h":"46271.08","l":"46208.37","v":"40.57574","x":true}}}`,
			want: &KLineEvent{
				Symbol:   "BTCUSDT",
				Interval: types.Interval1m,
				Closed:   true,
				KLine: types.KLine{
					Time:   1640995200000,
					Open:   46216.93,
					High:   46271.08,
					Low:    46208.37,
					Close:  46250.00,
					Volume: 40.57574,
				},
			},
		},
		{
			name: "raw event, open kline",
			payload: `{"e":"kline","E":1640995260123,"s":"ETHUSDT",
				"k":{"t":1640995200000,"i":"1h","o":"1","c":"2","h":"3","l":"0.5","v":"10","x":false}}`,
			want: &KLineEvent{
				Symbol:   "ETHUSDT",
				Interval: types.Interval1h,
				KLine:    types.KLine{Time: 1640995200000, Open: 1, High: 3, Low: 0.5, Close: 2, Volume: 10},
			},
		},
		{
			name:    "other event",
			payload: `{"stream":"btcusdt@trade","data":{"e":"trade","s":"BTCUSDT"}}`,
			wantErr: true,
		},
		{
			name:    "invalid price",
			payload: `{"e":"kline","s":"BTCUSDT","k":{"t":1,"i":"1m","o":"x","c":"2","h":"3","l":"1","v":"1","x":true}}`,
			wantErr: true,
		},
		{
			name:    "not json",
			payload: `PONG`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseKLineEvent([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStreamName(t *testing.T) {
	sub := types.Subscription{Symbol: types.NewSymbol("btc", "usdt"), Interval: types.Interval15m}
	assert.Equal(t, "btcusdt@kline_15m", StreamName(sub))
}
