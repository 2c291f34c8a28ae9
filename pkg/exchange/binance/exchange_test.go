package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/c9s/kfeed/pkg/archive"
	"github.com/c9s/kfeed/pkg/archive/mocks"
	"github.com/c9s/kfeed/pkg/types"
)

func newRESTExchange(t *testing.T, routes map[string]string) (*Exchange, chan url.Values) {
	forms := make(chan url.Values, 8)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":-1,"msg":"not found"}`))
			return
		}

		_ = r.ParseForm()
		select {
		case forms <- r.Form:
		default:
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	e := New("key", "secret", nil)
	e.Client.BaseURL = server.URL
	return e, forms
}

func TestExchange_Symbols(t *testing.T) {
	e, _ := newRESTExchange(t, map[string]string{
		"GET /api/v3/exchangeInfo": `{"timezone":"UTC","serverTime":1640995200000,"symbols":[
			{"symbol":"BTCUSDT","status":"TRADING","baseAsset":"BTC","quoteAsset":"USDT"},
			{"symbol":"LUNAUSDT","status":"BREAK","baseAsset":"LUNA","quoteAsset":"USDT"},
			{"symbol":"ETHBTC","status":"TRADING","baseAsset":"ETH","quoteAsset":"BTC"}]}`,
	})

	symbols, err := e.Symbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.Symbol{types.NewSymbol("BTC", "USDT"), types.NewSymbol("ETH", "BTC")}, symbols)
}

func TestExchange_Balance(t *testing.T) {
	e, _ := newRESTExchange(t, map[string]string{
		"GET /api/v3/account": `{"makerCommission":10,"canTrade":true,"balances":[
			{"asset":"BTC","free":"0.5","locked":"0.1"},
			{"asset":"ETH","free":"0.00000000","locked":"0"},
			{"asset":"USDT","free":"1200.25","locked":"0"}]}`,
	})

	balances, err := e.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.BalanceMap{"BTC": 0.5, "USDT": 1200.25}, balances)
}

func TestExchange_Prices(t *testing.T) {
	e, _ := newRESTExchange(t, map[string]string{
		"GET /api/v3/ticker/price": `[{"symbol":"BTCUSDT","price":"46216.93"},{"symbol":"ETHUSDT","price":"3676.22"}]`,
	})

	prices, err := e.Prices(context.Background(), types.NewSymbol("BTC", "USDT"), types.NewSymbol("ETH", "USDT"))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"BTCUSDT": 46216.93, "ETHUSDT": 3676.22}, prices)
}

func TestExchange_SubmitOrder(t *testing.T) {
	e, forms := newRESTExchange(t, map[string]string{
		"POST /api/v3/order": `{"symbol":"BTCUSDT","orderId":28,"clientOrderId":"x","transactTime":1640995200123,
			"price":"0.00000000","origQty":"0.02","executedQty":"0.02","cummulativeQuoteQty":"920.00",
			"status":"FILLED","timeInForce":"GTC","type":"MARKET","side":"BUY"}`,
	})

	position, err := e.SubmitOrder(context.Background(), types.NewSymbol("BTC", "USDT"), types.SubmitOrder{
		Type:     types.OrderTypeMarket,
		Side:     types.SideTypeBuy,
		Quantity: 1000,
		Quote:    true,
	})
	require.NoError(t, err)

	form := <-forms
	assert.Equal(t, "1000", form.Get("quoteOrderQty"))
	assert.Equal(t, "MARKET", form.Get("type"))
	assert.True(t, strings.HasPrefix(form.Get("newClientOrderId"), clientOrderIDPrefix))
	assert.Len(t, form.Get("newClientOrderId"), 36)
	assert.Equal(t, &types.Position{
		ID:       "28",
		Symbol:   types.NewSymbol("BTC", "USDT"),
		Side:     types.SideTypeBuy,
		Quantity: 0.02,
		Price:    46000,
		Time:     1640995200123,
	}, position)
}

func TestNewClientOrderID(t *testing.T) {
	assert.Equal(t, "my-order", newClientOrderID("my-order"))

	a, b := newClientOrderID(""), newClientOrderID("")
	assert.NotEqual(t, a, b)
	assert.LessOrEqual(t, len(a), 36)
}

func TestExchange_CancelOrder(t *testing.T) {
	e, _ := newRESTExchange(t, map[string]string{
		"DELETE /api/v3/order": `{"symbol":"BTCUSDT","orderId":28,"status":"CANCELED"}`,
	})

	canceled, err := e.CancelOrder(context.Background(), types.NewSymbol("BTC", "USDT"), "28")
	require.NoError(t, err)
	assert.True(t, canceled)

	_, err = e.CancelOrder(context.Background(), types.NewSymbol("BTC", "USDT"), "sim-1")
	assert.Error(t, err)
}

func TestExchange_Time(t *testing.T) {
	serverTime := time.Now().Add(time.Hour).UnixMilli()
	e, _ := newRESTExchange(t, map[string]string{
		"GET /api/v3/time": `{"serverTime":` + strconv.FormatInt(serverTime, 10) + `}`,
	})

	now, err := e.Time(context.Background())
	require.NoError(t, err)
	assert.WithinDuration(t, time.UnixMilli(serverTime), now, 5*time.Second)
}

func TestExchange_History(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	btcusdt := types.NewSymbol("BTC", "USDT")
	jan := time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
	key := archive.NewUnitKey(btcusdt, types.Interval1d, jan)

	klines := make([]types.KLine, 31)
	for i := range klines {
		klines[i] = types.KLine{Time: jan.AddDate(0, 0, i).UnixMilli(), Close: float64(i)}
	}

	store.EXPECT().Exists(gomock.Any(), key).Return(true, nil)
	store.EXPECT().Read(gomock.Any(), key).Return(klines, nil)

	e := New("", "", store)

	var events []types.KLineEvent
	timeRange := types.NewTimeRange(jan, jan.AddDate(0, 0, 9))
	subs := []types.Subscription{{Symbol: btcusdt, Interval: types.Interval1d}}
	for event, err := range e.History(context.Background(), subs, timeRange) {
		require.NoError(t, err)
		events = append(events, event)
	}

	require.Len(t, events, 10)
	assert.Equal(t, jan.UnixMilli(), events[0].KLine.Time)
	assert.Equal(t, float64(9), events[9].KLine.Close)
}
