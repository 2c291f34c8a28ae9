package binance

import (
	"context"
	"iter"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/c9s/kfeed/pkg/archive"
	"github.com/c9s/kfeed/pkg/replay"
	"github.com/c9s/kfeed/pkg/types"
	"github.com/c9s/kfeed/pkg/util/backoff"
)

var log = logrus.WithFields(logrus.Fields{
	"exchange": "binance",
})

type Exchange struct {
	Client *binance.Client

	// StreamBaseURL is the websocket endpoint, without the /stream path.
	StreamBaseURL string
	StreamRetry   backoff.Policy
	Dialer        *websocket.Dialer

	history *replay.Engine
}

// New creates the live exchange. History is served from the archive store.
func New(key, secret string, store archive.Store) *Exchange {
	var client = binance.NewClient(key, secret)
	return &Exchange{
		Client:        client,
		StreamBaseURL: StreamBaseURL,
		StreamRetry:   DefaultStreamRetry,
		Dialer:        websocket.DefaultDialer,
		history:       replay.NewEngine(store, types.TimeRange{}),
	}
}

func (e *Exchange) Name() types.ExchangeName {
	return types.ExchangeBinance
}

const clientOrderIDPrefix = "x-kfeed-"

// newClientOrderID keeps the given id or generates one, binance accepts up to 36 characters.
func newClientOrderID(originalID string) string {
	if originalID != "" {
		return originalID
	}

	clientOrderID := clientOrderIDPrefix + uuid.New().String()
	if len(clientOrderID) > 36 {
		return clientOrderID[0:36]
	}

	return clientOrderID
}

// Time returns the server time, the client time offset is updated as a side effect.
func (e *Exchange) Time(ctx context.Context) (time.Time, error) {
	offset, err := e.Client.NewSetServerTimeService().Do(ctx)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "unable to query server time")
	}

	// offset is local time minus server time
	return time.Now().Add(-time.Duration(offset) * time.Millisecond).UTC(), nil
}

// Symbols returns the pairs in TRADING status.
func (e *Exchange) Symbols(ctx context.Context) ([]types.Symbol, error) {
	exchangeInfo, err := e.Client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, err
	}

	symbols := make([]types.Symbol, 0, len(exchangeInfo.Symbols))
	for _, s := range exchangeInfo.Symbols {
		if s.Status != string(binance.SymbolStatusTypeTrading) {
			continue
		}

		symbols = append(symbols, types.NewSymbol(s.BaseAsset, s.QuoteAsset))
	}

	return symbols, nil
}

func (e *Exchange) Balance(ctx context.Context) (types.BalanceMap, error) {
	account, err := e.Client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, err
	}

	balances := types.BalanceMap{}
	for _, b := range account.Balances {
		free, err := strconv.ParseFloat(b.Free, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid balance of %s", b.Asset)
		}

		if free > 0 {
			balances[b.Asset] = free
		}
	}

	return balances, nil
}

func toLocalSideType(side types.SideType) binance.SideType {
	if side == types.SideTypeSell {
		return binance.SideTypeSell
	}
	return binance.SideTypeBuy
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SubmitOrder places the order and converts the fill into a position. Quote
// orders are sent with quoteOrderQty.
func (e *Exchange) SubmitOrder(ctx context.Context, symbol types.Symbol, order types.SubmitOrder) (*types.Position, error) {
	req := e.Client.NewCreateOrderService().
		Symbol(symbol.String()).
		Side(toLocalSideType(order.Side)).
		NewClientOrderID(newClientOrderID(order.ClientOrderID))

	switch {
	case order.Quote:
		req.Type(binance.OrderTypeMarket).QuoteOrderQty(formatFloat(order.Quantity))

	case order.Type == types.OrderTypeLimit:
		req.Type(binance.OrderTypeLimit).
			TimeInForce(binance.TimeInForceTypeGTC).
			Quantity(formatFloat(order.Quantity)).
			Price(formatFloat(order.Price))

	default:
		req.Type(binance.OrderTypeMarket).Quantity(formatFloat(order.Quantity))
	}

	response, err := req.Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to submit %s order of %s", order.Side, symbol)
	}

	log.Infof("order created: %+v", response)

	executed, err := strconv.ParseFloat(response.ExecutedQuantity, 64)
	if err != nil {
		return nil, errors.Wrap(err, "invalid executed quantity")
	}

	quote, err := strconv.ParseFloat(response.CummulativeQuoteQuantity, 64)
	if err != nil {
		return nil, errors.Wrap(err, "invalid cumulative quote quantity")
	}

	position := &types.Position{
		ID:       strconv.FormatInt(response.OrderID, 10),
		Symbol:   symbol,
		Side:     order.Side,
		Quantity: executed,
		Time:     response.TransactTime,
	}

	if executed > 0 {
		position.Price = quote / executed
	} else {
		position.Price = order.Price
	}

	if order.Type == types.OrderTypeMarket && order.Price > 0 && position.Price > 0 {
		position.Slippage = (position.Price - order.Price) / order.Price
	}

	return position, nil
}

func (e *Exchange) CancelOrder(ctx context.Context, symbol types.Symbol, id string) (bool, error) {
	orderID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return false, errors.Wrapf(err, "invalid order id %q", id)
	}

	response, err := e.Client.NewCancelOrderService().
		Symbol(symbol.String()).
		OrderID(orderID).
		Do(ctx)
	if err != nil {
		return false, err
	}

	return response.Status == binance.OrderStatusTypeCanceled, nil
}

func (e *Exchange) Prices(ctx context.Context, symbols ...types.Symbol) (map[string]float64, error) {
	req := e.Client.NewListPricesService()
	if len(symbols) > 0 {
		names := make([]string, len(symbols))
		for i, s := range symbols {
			names[i] = s.String()
		}
		req.Symbols(names)
	}

	prices, err := req.Do(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]float64, len(prices))
	for _, p := range prices {
		price, err := strconv.ParseFloat(p.Price, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid price of %s", p.Symbol)
		}
		result[p.Symbol] = price
	}

	return result, nil
}

// History reads the monthly archive, same as the simulation does.
func (e *Exchange) History(ctx context.Context, subscriptions []types.Subscription, timeRange types.TimeRange) iter.Seq2[types.KLineEvent, error] {
	return e.history.History(ctx, subscriptions, timeRange)
}

var _ types.Exchange = (*Exchange)(nil)
