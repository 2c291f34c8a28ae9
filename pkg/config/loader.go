package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/c9s/kfeed/pkg/store"
	"github.com/c9s/kfeed/pkg/trader"
	"github.com/c9s/kfeed/pkg/types"
)

const DefaultCacheDir = ".cache"

// StoreType selects the archive cache backend.
type StoreType string

const (
	StoreTypeFile   = StoreType("file")
	StoreTypeSQLite = StoreType("sqlite3")
	StoreTypeMySQL  = StoreType("mysql")
)

type Exchange struct {
	Name   types.ExchangeName `json:"name" yaml:"name"`
	Key    string             `json:"key,omitempty" yaml:"key,omitempty"`
	Secret string             `json:"secret,omitempty" yaml:"secret,omitempty"`

	// CacheDir holds the monthly archive files.
	CacheDir string `json:"cacheDir,omitempty" yaml:"cacheDir,omitempty"`

	Store StoreType `json:"store,omitempty" yaml:"store,omitempty"`

	// DSN is required by the sql stores.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

type Backtest struct {
	StartTime string           `json:"startTime" yaml:"startTime"`
	EndTime   string           `json:"endTime,omitempty" yaml:"endTime,omitempty"`
	Balances  types.BalanceMap `json:"balances,omitempty" yaml:"balances,omitempty"`
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("unsupported time format %q", s)
}

// TimeRange parses the start and end time, a missing end time leaves the
// range open.
func (b Backtest) TimeRange() (types.TimeRange, error) {
	from, err := parseTime(b.StartTime)
	if err != nil {
		return types.TimeRange{}, errors.Wrap(err, "backtest.startTime")
	}

	if b.EndTime == "" {
		return types.Since(from), nil
	}

	to, err := parseTime(b.EndTime)
	if err != nil {
		return types.TimeRange{}, errors.Wrap(err, "backtest.endTime")
	}

	if to.Before(from) {
		return types.TimeRange{}, errors.Errorf("backtest.endTime %s is before startTime %s", to, from)
	}

	return types.NewTimeRange(from, to), nil
}

type Pair struct {
	Symbol    types.Symbol `json:"symbol" yaml:"symbol"`
	Intervals Intervals    `json:"intervals" yaml:"intervals"`
}

type Server struct {
	Bind string `json:"bind" yaml:"bind"`
}

type Config struct {
	Exchange Exchange             `json:"exchange" yaml:"exchange"`
	Backtest *Backtest            `json:"backtest,omitempty" yaml:"backtest,omitempty"`
	Runtime  store.RuntimeOptions `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	Pairs    []Pair               `json:"pairs" yaml:"pairs"`
	Server   *Server              `json:"server,omitempty" yaml:"server,omitempty"`

	Strategies []trader.Strategy `json:"-" yaml:"-"`
}

// Subscriptions expands the pairs into one subscription per interval.
func (c *Config) Subscriptions() []types.Subscription {
	var subscriptions []types.Subscription
	for _, pair := range c.Pairs {
		for _, interval := range pair.Intervals {
			subscriptions = append(subscriptions, types.Subscription{
				Symbol:   pair.Symbol,
				Interval: interval,
			})
		}
	}
	return subscriptions
}

func (c *Config) Validate() error {
	if c.Exchange.Name != "" {
		name, err := types.ValidExchangeName(c.Exchange.Name.String())
		if err != nil {
			return err
		}
		c.Exchange.Name = name
	}

	switch c.Exchange.Store {
	case "", StoreTypeFile:
	case StoreTypeSQLite, StoreTypeMySQL:
		if c.Exchange.DSN == "" {
			return errors.Errorf("exchange.dsn is required by the %s store", c.Exchange.Store)
		}
	default:
		return errors.Errorf("unsupported archive store %q", c.Exchange.Store)
	}

	if len(c.Pairs) == 0 {
		return errors.New("at least one pair is required")
	}

	for _, pair := range c.Pairs {
		if pair.Symbol.IsZero() {
			return errors.New("pair without symbol")
		}
		if len(pair.Intervals) == 0 {
			return errors.Errorf("pair %s has no interval", pair.Symbol)
		}
	}

	if err := types.ValidateSubscriptions(c.Subscriptions()); err != nil {
		return err
	}

	if c.Runtime.Interval != "" {
		if err := c.Runtime.Interval.Validate(); err != nil {
			return errors.Wrap(err, "runtime.interval")
		}
	}

	if c.Backtest != nil {
		if _, err := c.Backtest.TimeRange(); err != nil {
			return err
		}
	}

	for _, s := range c.Strategies {
		if v, ok := s.(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				return errors.Wrapf(err, "strategy %s", s.ID())
			}
		}
	}

	return nil
}

type Stash map[string]interface{}

func loadStash(content []byte) (Stash, error) {
	stash := make(Stash)
	if err := yaml.Unmarshal(content, stash); err != nil {
		return nil, err
	}

	return stash, nil
}

// Load reads and validates the config file. Environment variables in the
// file are expanded.
func Load(configFile string) (*Config, error) {
	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}

	return LoadBytes([]byte(os.ExpandEnv(string(content))))
}

func LoadBytes(content []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(content, &config); err != nil {
		return nil, errors.Wrap(err, "config parsing error")
	}

	if config.Exchange.CacheDir == "" {
		config.Exchange.CacheDir = DefaultCacheDir
	}

	stash, err := loadStash(content)
	if err != nil {
		return nil, err
	}

	strategies, err := loadStrategies(stash)
	if err != nil {
		return nil, err
	}
	config.Strategies = strategies

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// loadStrategies reads the list under "strategies", each entry is a map of
// one registered strategy id to its settings.
func loadStrategies(stash Stash) (strategies []trader.Strategy, err error) {
	strategiesConf, ok := stash["strategies"]
	if !ok {
		return strategies, nil
	}

	configList, ok := strategiesConf.([]interface{})
	if !ok {
		return nil, errors.New("expecting list in strategies")
	}

	for _, entry := range configList {
		var configStash Stash
		switch m := entry.(type) {
		case Stash:
			configStash = m
		case map[string]interface{}:
			configStash = m
		default:
			return nil, errors.Errorf("strategy config should be a map, given: %T %+v", entry, entry)
		}

		for id, conf := range configStash {
			strategy, err := trader.NewStrategy(id, func(v interface{}) error {
				return reUnmarshal(conf, v)
			})
			if err != nil {
				return nil, err
			}

			strategies = append(strategies, strategy)
		}
	}

	return strategies, nil
}

func reUnmarshal(conf interface{}, v interface{}) error {
	plain, err := json.Marshal(conf)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(plain, v); err != nil {
		return errors.Wrapf(err, "json parsing error, given payload: %s", plain)
	}

	return nil
}
