package types

import "fmt"

// SideType define side type of order
type SideType string

const (
	SideTypeBuy  = SideType("BUY")
	SideTypeSell = SideType("SELL")
)

func (side SideType) Reverse() SideType {
	switch side {
	case SideTypeBuy:
		return SideTypeSell

	case SideTypeSell:
		return SideTypeBuy
	}

	return side
}

type OrderType string

const (
	OrderTypeLimit  = OrderType("LIMIT")
	OrderTypeMarket = OrderType("MARKET")
)

// SubmitOrder describes an order request.
type SubmitOrder struct {
	Type OrderType `json:"type"`
	Side SideType  `json:"side"`

	Quantity float64 `json:"quantity"`

	// Price is ignored when the quantity is expressed in the quote currency.
	Price float64 `json:"price,omitempty"`

	// Quote marks the quantity as a quote currency amount.
	Quote bool `json:"quote,omitempty"`

	// ClientOrderID is generated by the exchange adapter when empty.
	ClientOrderID string `json:"clientOrderID,omitempty"`
}

// Position is the result of a filled order.
type Position struct {
	ID       string   `json:"id"`
	Symbol   Symbol   `json:"symbol"`
	Side     SideType `json:"side"`
	Quantity float64  `json:"quantity"`
	Price    float64  `json:"price"`

	// Time in unix milliseconds
	Time int64 `json:"time"`

	Slippage float64 `json:"slippage,omitempty"`
}

func (p Position) String() string {
	return fmt.Sprintf("position %s %s %s %f @ %f", p.ID, p.Symbol, p.Side, p.Quantity, p.Price)
}
