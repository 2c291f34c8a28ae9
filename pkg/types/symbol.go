package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Symbol is a trading pair, e.g. BTC/USDT.
type Symbol struct {
	Base  string `json:"base" yaml:"base"`
	Quote string `json:"quote" yaml:"quote"`
}

func NewSymbol(base, quote string) Symbol {
	return Symbol{
		Base:  strings.ToUpper(base),
		Quote: strings.ToUpper(quote),
	}
}

// ParseSymbol parses "BTC/USDT" or "BTC-USDT" into a Symbol.
func ParseSymbol(s string) (Symbol, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == ':'
	})
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Symbol{}, errors.Errorf("invalid symbol %q, expecting BASE/QUOTE", s)
	}

	return NewSymbol(parts[0], parts[1]), nil
}

// String returns the exchange form BASEQUOTE.
func (s Symbol) String() string {
	return s.Base + s.Quote
}

func (s Symbol) IsZero() bool {
	return s.Base == "" && s.Quote == ""
}

func (s Symbol) MarshalText() ([]byte, error) {
	return []byte(s.Base + "/" + s.Quote), nil
}

func (s *Symbol) UnmarshalText(text []byte) error {
	symbol, err := ParseSymbol(string(text))
	if err != nil {
		return err
	}

	*s = symbol
	return nil
}

func (s *Symbol) UnmarshalJSON(data []byte) error {
	var a string
	if err := json.Unmarshal(data, &a); err == nil {
		return s.UnmarshalText([]byte(a))
	}

	var obj struct {
		Base  string `json:"base"`
		Quote string `json:"quote"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	*s = NewSymbol(obj.Base, obj.Quote)
	return nil
}

func (s Symbol) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("%s/%s", s.Base, s.Quote))
}

// Subscription is a (symbol, interval) pair requested from a feed.
type Subscription struct {
	Symbol   Symbol   `json:"symbol" yaml:"symbol"`
	Interval Interval `json:"interval" yaml:"interval"`
}

func (s Subscription) String() string {
	return s.Symbol.String() + "@" + s.Interval.String()
}

// ValidateSubscriptions rejects any subscription with an unsupported interval.
func ValidateSubscriptions(subscriptions []Subscription) error {
	for _, sub := range subscriptions {
		if err := sub.Interval.Validate(); err != nil {
			return errors.Wrapf(err, "invalid subscription %s", sub.Symbol)
		}
	}

	return nil
}
