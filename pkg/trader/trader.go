// Package trader feeds an exchange stream into a runtime store and hands
// every ready kline to a strategy.
package trader

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/c9s/kfeed/pkg/store"
	"github.com/c9s/kfeed/pkg/types"
)

// Strategy is called with a snapshot of the pushed key once it is ready.
type Strategy interface {
	ID() string
	OnKLine(ctx context.Context, exchange types.Exchange, snapshot store.Snapshot) error
}

// StrategyFunc adapts a function into a Strategy.
type StrategyFunc func(ctx context.Context, exchange types.Exchange, snapshot store.Snapshot) error

func (f StrategyFunc) ID() string {
	return "func"
}

func (f StrategyFunc) OnKLine(ctx context.Context, exchange types.Exchange, snapshot store.Snapshot) error {
	return f(ctx, exchange, snapshot)
}

// Strategies calls every strategy in order and stops at the first error.
type Strategies []Strategy

func (s Strategies) ID() string {
	ids := make([]string, len(s))
	for i, strategy := range s {
		ids[i] = strategy.ID()
	}
	return strings.Join(ids, ",")
}

func (s Strategies) OnKLine(ctx context.Context, exchange types.Exchange, snapshot store.Snapshot) error {
	for _, strategy := range s {
		if err := strategy.OnKLine(ctx, exchange, snapshot); err != nil {
			return errors.Wrap(err, strategy.ID())
		}
	}
	return nil
}

var (
	registryMu       sync.Mutex
	LoadedStrategies = map[string]reflect.Type{}
)

// RegisterStrategy registers the prototype of a strategy, the prototype
// must be a pointer to a struct.
func RegisterStrategy(key string, s Strategy) {
	rt := reflect.TypeOf(s)
	if rt.Kind() != reflect.Ptr || rt.Elem().Kind() != reflect.Struct {
		panic(fmt.Errorf("%T is not a pointer to a struct", s))
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	LoadedStrategies[key] = rt.Elem()
}

// NewStrategy creates a fresh instance of the registered strategy. decode
// fills its exported fields, usually from the config file.
func NewStrategy(key string, decode func(v interface{}) error) (Strategy, error) {
	registryMu.Lock()
	rt, ok := LoadedStrategies[key]
	registryMu.Unlock()

	if !ok {
		return nil, errors.Errorf("strategy %q is not registered, available: %v", key, StrategyIDs())
	}

	s := reflect.New(rt).Interface().(Strategy)
	if decode != nil {
		if err := decode(s); err != nil {
			return nil, errors.Wrapf(err, "unable to load strategy %s", key)
		}
	}

	return s, nil
}

func StrategyIDs() []string {
	registryMu.Lock()
	defer registryMu.Unlock()

	ids := make([]string, 0, len(LoadedStrategies))
	for id := range LoadedStrategies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type Trader struct {
	exchange types.Exchange
	runtime  *store.Runtime
	strategy Strategy

	// ContinueOnError keeps consuming the stream when the strategy fails.
	ContinueOnError bool
}

func New(exchange types.Exchange, runtime *store.Runtime, strategy Strategy) *Trader {
	return &Trader{
		exchange: exchange,
		runtime:  runtime,
		strategy: strategy,
	}
}

func (t *Trader) Runtime() *store.Runtime {
	return t.runtime
}

func (t *Trader) Exchange() types.Exchange {
	return t.exchange
}

// Reset rewinds the exchange when it can be rewound and resets the runtime,
// the next Run starts over.
func (t *Trader) Reset() {
	if r, ok := t.exchange.(interface{ Reset() }); ok {
		r.Reset()
	}

	t.runtime.Reset()
}

// Run consumes the stream of the subscriptions until it ends, the context is
// canceled or the strategy fails. A nil strategy only fills the runtime.
func (t *Trader) Run(ctx context.Context, subscriptions []types.Subscription) error {
	logger := log.WithField("exchange", t.exchange.Name())
	if t.strategy != nil {
		logger = logger.WithField("strategy", t.strategy.ID())
	}

	logger.Infof("trading %d subscriptions", len(subscriptions))

	for event, err := range t.exchange.Stream(ctx, subscriptions) {
		if err != nil {
			return err
		}

		t.runtime.Push(event.Symbol, event.KLine, event.Interval)

		if t.strategy == nil || !t.runtime.IsReady(event.Symbol, event.Interval) {
			continue
		}

		snapshot := t.runtime.Snapshot(event.Symbol, event.Interval)
		if err := t.strategy.OnKLine(ctx, t.exchange, snapshot); err != nil {
			if !t.ContinueOnError {
				return errors.Wrapf(err, "strategy %s failed at %s", t.strategy.ID(), event.KLine.StartTime())
			}

			logger.WithError(err).Errorf("strategy error at %s", event.KLine.StartTime())
		}
	}

	return nil
}
