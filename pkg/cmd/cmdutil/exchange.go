package cmdutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/c9s/kfeed/pkg/archive"
	"github.com/c9s/kfeed/pkg/config"
	"github.com/c9s/kfeed/pkg/exchange/binance"
	"github.com/c9s/kfeed/pkg/replay"
	"github.com/c9s/kfeed/pkg/simulation"
	"github.com/c9s/kfeed/pkg/types"
)

// NewExchangeStandard creates a live exchange. Public endpoints work without
// credentials so an empty key is accepted.
func NewExchangeStandard(n types.ExchangeName, key, secret string, store archive.Store) (types.Exchange, error) {
	switch n {

	case types.ExchangeBinance:
		return binance.New(key, secret, store), nil

	default:
		return nil, fmt.Errorf("unsupported exchange: %v", n)

	}
}

// NewExchangeWithEnvVarPrefix reads <PREFIX>_API_KEY and <PREFIX>_API_SECRET.
func NewExchangeWithEnvVarPrefix(n types.ExchangeName, varPrefix string, store archive.Store) (types.Exchange, error) {
	if len(varPrefix) == 0 {
		varPrefix = n.String()
	}

	varPrefix = strings.ToUpper(varPrefix)

	key := os.Getenv(varPrefix + "_API_KEY")
	secret := os.Getenv(varPrefix + "_API_SECRET")
	return NewExchangeStandard(n, key, secret, store)
}

// NewSimulation replays the backtest range of the config over the archive store.
func NewSimulation(conf *config.Config, store archive.Store) (*simulation.Exchange, error) {
	if conf.Backtest == nil {
		return nil, errors.New("backtest section is required by the simulation exchange")
	}

	timeRange, err := conf.Backtest.TimeRange()
	if err != nil {
		return nil, err
	}

	engine := replay.NewEngine(store, timeRange)
	return simulation.New(engine, simulation.Options{Balances: conf.Backtest.Balances}), nil
}

// NewExchange creates the exchange named in the config. Credentials missing
// from the config are looked up in the environment.
func NewExchange(conf *config.Config, store archive.Store) (types.Exchange, error) {
	switch conf.Exchange.Name {
	case types.ExchangeSimulation:
		return NewSimulation(conf, store)

	case "", types.ExchangeBinance:
		if conf.Exchange.Key != "" {
			return NewExchangeStandard(types.ExchangeBinance, conf.Exchange.Key, conf.Exchange.Secret, store)
		}
		return NewExchangeWithEnvVarPrefix(types.ExchangeBinance, "", store)
	}

	return nil, fmt.Errorf("unsupported exchange: %v", conf.Exchange.Name)
}
