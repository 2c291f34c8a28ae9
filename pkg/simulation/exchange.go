// Package simulation presents a replay engine as an exchange so that the same
// strategy code runs against live and historical data.
package simulation

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/c9s/kfeed/pkg/replay"
	"github.com/c9s/kfeed/pkg/types"
)

var log = logrus.WithField("exchange", "simulation")

// DefaultBalances is the starting balance when none is configured.
var DefaultBalances = types.BalanceMap{"USDT": 1000}

// SymbolLister lists tradable symbols, usually a live exchange.
type SymbolLister interface {
	Symbols(ctx context.Context) ([]types.Symbol, error)
}

type Options struct {
	Balances types.BalanceMap

	// Symbols is used by Symbols. Without it the observed symbols are returned.
	Symbols SymbolLister
}

// Exchange fills every order at the last observed close and never holds resting orders.
type Exchange struct {
	engine  *replay.Engine
	symbols SymbolLister

	mu       sync.RWMutex
	balances types.BalanceMap
	last     map[types.Symbol]types.KLine
}

func New(engine *replay.Engine, options Options) *Exchange {
	balances := options.Balances
	if balances == nil {
		balances = DefaultBalances
	}

	return &Exchange{
		engine:   engine,
		symbols:  options.Symbols,
		balances: balances.Copy(),
		last:     make(map[types.Symbol]types.KLine),
	}
}

func (e *Exchange) Name() types.ExchangeName {
	return types.ExchangeSimulation
}

func (e *Exchange) Balance(_ context.Context) (types.BalanceMap, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.balances.Copy(), nil
}

func (e *Exchange) Symbols(ctx context.Context) ([]types.Symbol, error) {
	if e.symbols != nil {
		return e.symbols.Symbols(ctx)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	symbols := make([]types.Symbol, 0, len(e.last))
	for symbol := range e.last {
		symbols = append(symbols, symbol)
	}
	sort.Slice(symbols, func(i, j int) bool {
		return symbols[i].String() < symbols[j].String()
	})
	return symbols, nil
}

// Time is the replay cursor, the zero time when the replay is not running.
func (e *Exchange) Time(_ context.Context) (time.Time, error) {
	cursor := e.engine.Cursor()
	if cursor.IsNone() {
		return time.Time{}, nil
	}
	return time.UnixMilli(cursor.Unwrap()).UTC(), nil
}

func (e *Exchange) lastClose(symbol types.Symbol) (float64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	k, ok := e.last[symbol]
	return k.Close, ok
}

// SubmitOrder fills the whole order immediately. A quote order converts its
// quantity with the last close, other orders keep their quantity and use the
// limit price or the last close.
func (e *Exchange) SubmitOrder(_ context.Context, symbol types.Symbol, order types.SubmitOrder) (*types.Position, error) {
	price, ok := e.lastClose(symbol)
	if !ok {
		return nil, errors.Errorf("no price observed for %s", symbol)
	}

	cursor := e.engine.Cursor().TakeOr(-1)
	position := &types.Position{
		ID:     fmt.Sprintf("sim-%d", cursor),
		Symbol: symbol,
		Side:   order.Side,
		Time:   cursor,
	}

	if order.Quote {
		position.Quantity = order.Quantity * price
		position.Price = order.Quantity * price / order.Quantity
	} else {
		position.Quantity = order.Quantity
		position.Price = order.Price
		if position.Price == 0 {
			position.Price = price
		}
	}

	log.Debugf("filled %s", position)
	return position, nil
}

// CancelOrder always returns false since no order is ever resting.
func (e *Exchange) CancelOrder(_ context.Context, _ types.Symbol, _ string) (bool, error) {
	return false, nil
}

// Prices returns the last observed close of each symbol.
func (e *Exchange) Prices(_ context.Context, symbols ...types.Symbol) (map[string]float64, error) {
	prices := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		price, ok := e.lastClose(symbol)
		if !ok {
			return nil, errors.Errorf("no price observed for %s", symbol)
		}
		prices[symbol.String()] = price
	}
	return prices, nil
}

// Stream replays the configured range and keeps track of the last kline of
// every symbol. Status and cursor follow the replay engine.
func (e *Exchange) Stream(ctx context.Context, subscriptions []types.Subscription) iter.Seq2[types.KLineEvent, error] {
	return func(yield func(types.KLineEvent, error) bool) {
		for event, err := range e.engine.Stream(ctx, subscriptions) {
			if err == nil {
				e.mu.Lock()
				e.last[event.Symbol] = event.KLine
				e.mu.Unlock()
			}

			if !yield(event, err) {
				return
			}
		}
	}
}

func (e *Exchange) History(ctx context.Context, subscriptions []types.Subscription, timeRange types.TimeRange) iter.Seq2[types.KLineEvent, error] {
	return e.engine.History(ctx, subscriptions, timeRange)
}

func (e *Exchange) Status() replay.Status {
	return e.engine.Status()
}

func (e *Exchange) Reset() {
	e.engine.Reset()
}

var _ types.Exchange = (*Exchange)(nil)
