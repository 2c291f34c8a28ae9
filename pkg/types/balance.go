package types

import "sort"

// BalanceMap maps a currency to its available amount, e.g. {"BTC": 0.1}.
type BalanceMap map[string]float64

func (m BalanceMap) Copy() BalanceMap {
	o := make(BalanceMap, len(m))
	for currency, amount := range m {
		o[currency] = amount
	}
	return o
}

// Currencies lists the currencies in alphabetical order.
func (m BalanceMap) Currencies() []string {
	currencies := make([]string, 0, len(m))
	for currency := range m {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)
	return currencies
}
