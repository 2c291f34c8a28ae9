package types

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type ExchangeName string

func (n ExchangeName) String() string {
	return string(n)
}

const (
	ExchangeBinance    = ExchangeName("binance")
	ExchangeSimulation = ExchangeName("simulation")
)

func ValidExchangeName(a string) (ExchangeName, error) {
	switch strings.ToLower(a) {
	case "binance", "bn":
		return ExchangeBinance, nil
	case "simulation", "sim", "backtest":
		return ExchangeSimulation, nil
	}

	return "", errors.Errorf("unsupported exchange: %v", a)
}

// KLineFeed produces klines in availability order, one item per pull.
type KLineFeed interface {
	// Stream emits klines of the given subscriptions as they become available.
	Stream(ctx context.Context, subscriptions []Subscription) iter.Seq2[KLineEvent, error]

	// History emits historical klines of the given subscriptions inside the time range.
	History(ctx context.Context, subscriptions []Subscription, timeRange TimeRange) iter.Seq2[KLineEvent, error]
}

// Exchange is the capability set shared by the live and the replay providers.
type Exchange interface {
	KLineFeed

	Name() ExchangeName

	// Balance returns the available balances of the account.
	Balance(ctx context.Context) (BalanceMap, error)

	// Symbols returns the tradable pairs.
	Symbols(ctx context.Context) ([]Symbol, error)

	// Time returns the exchange time, the zero time if there is none yet.
	Time(ctx context.Context) (time.Time, error)

	SubmitOrder(ctx context.Context, symbol Symbol, order SubmitOrder) (*Position, error)

	// CancelOrder reports whether the order was canceled.
	CancelOrder(ctx context.Context, symbol Symbol, id string) (bool, error)

	// Prices returns the latest price keyed by the symbol string.
	Prices(ctx context.Context, symbols ...Symbol) (map[string]float64, error)
}
