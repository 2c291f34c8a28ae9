package smacross

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/c9s/kfeed/pkg/indicator"
	"github.com/c9s/kfeed/pkg/store"
	"github.com/c9s/kfeed/pkg/trader"
	"github.com/c9s/kfeed/pkg/types"
)

const ID = "smacross"

func init() {
	trader.RegisterStrategy(ID, &Strategy{})
}

// Strategy buys with a quote amount when the fast SMA of the close crosses
// over the slow one and sells the bought quantity on the cross under.
type Strategy struct {
	Symbol     types.Symbol   `json:"symbol" yaml:"symbol"`
	Interval   types.Interval `json:"interval" yaml:"interval"`
	FastWindow int            `json:"fastWindow" yaml:"fastWindow"`
	SlowWindow int            `json:"slowWindow" yaml:"slowWindow"`

	// Amount is the quote currency spent on each buy.
	Amount float64 `json:"amount" yaml:"amount"`

	holding   float64
	Positions []types.Position `json:"-" yaml:"-"`
}

func (s *Strategy) ID() string {
	return ID
}

func (s *Strategy) InstanceID() string {
	return fmt.Sprintf("%s:%s:%s:%d-%d", ID, s.Symbol, s.Interval, s.FastWindow, s.SlowWindow)
}

func (s *Strategy) Validate() error {
	if s.FastWindow <= 0 || s.SlowWindow <= 0 {
		return errors.New("fastWindow and slowWindow must be positive")
	}

	if s.FastWindow >= s.SlowWindow {
		return errors.Errorf("fastWindow %d must be shorter than slowWindow %d", s.FastWindow, s.SlowWindow)
	}

	if s.Amount <= 0 {
		return errors.New("amount must be positive")
	}

	return s.Interval.Validate()
}

// Subscriptions returns the single key the strategy trades on.
func (s *Strategy) Subscriptions() []types.Subscription {
	return []types.Subscription{{Symbol: s.Symbol, Interval: s.Interval}}
}

func (s *Strategy) OnKLine(ctx context.Context, exchange types.Exchange, snapshot store.Snapshot) error {
	if snapshot.Symbol != s.Symbol || snapshot.Interval != s.Interval {
		return nil
	}

	// both averages need two full windows to detect a cross
	if snapshot.Close.Length() < s.SlowWindow+1 {
		return nil
	}

	fast := indicator.SMA(snapshot.Close, s.FastWindow)
	slow := indicator.SMA(snapshot.Close, s.SlowWindow)
	above := indicator.Gt(fast, slow)

	now, before := above.At(0).Unwrap(), above.At(1).Unwrap()
	switch {
	case now && !before && s.holding == 0:
		position, err := exchange.SubmitOrder(ctx, s.Symbol, types.SubmitOrder{
			Type:     types.OrderTypeMarket,
			Side:     types.SideTypeBuy,
			Quantity: s.Amount,
			Quote:    true,
		})
		if err != nil {
			return errors.Wrap(err, "unable to submit buy order")
		}

		log.Infof("%s cross over: %s", s.InstanceID(), position)
		s.holding = position.Quantity
		s.Positions = append(s.Positions, *position)

	case !now && before && s.holding > 0:
		position, err := exchange.SubmitOrder(ctx, s.Symbol, types.SubmitOrder{
			Type:     types.OrderTypeMarket,
			Side:     types.SideTypeSell,
			Quantity: s.holding,
		})
		if err != nil {
			return errors.Wrap(err, "unable to submit sell order")
		}

		log.Infof("%s cross under: %s", s.InstanceID(), position)
		s.holding = 0
		s.Positions = append(s.Positions, *position)
	}

	return nil
}
