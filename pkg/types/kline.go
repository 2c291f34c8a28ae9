package types

import (
	"fmt"
	"time"
)

// KLine is a fixed-interval OHLCV bar. Time is the open time in unix milliseconds.
type KLine struct {
	Time   int64   `json:"time" db:"time"`
	Open   float64 `json:"open" db:"open"`
	High   float64 `json:"high" db:"high"`
	Low    float64 `json:"low" db:"low"`
	Close  float64 `json:"close" db:"close"`
	Volume float64 `json:"volume" db:"volume"`
}

func (k KLine) StartTime() time.Time {
	return time.UnixMilli(k.Time).UTC()
}

// CloseTime returns the instant (unix milliseconds) the bar closes and becomes observable.
func (k KLine) CloseTime(interval Interval) int64 {
	return k.Time + interval.Milliseconds()
}

func (k KLine) String() string {
	return fmt.Sprintf("%s O: %.4f H: %.4f L: %.4f C: %.4f V: %.4f",
		k.StartTime().Format(time.RFC3339), k.Open, k.High, k.Low, k.Close, k.Volume)
}

// KLineEvent is one item of a kline feed, live or replayed.
type KLineEvent struct {
	Symbol   Symbol   `json:"symbol"`
	KLine    KLine    `json:"kline"`
	Interval Interval `json:"interval"`
}

// AvailableAt is the corrected time used to order events of mixed intervals.
func (e KLineEvent) AvailableAt() int64 {
	return e.KLine.CloseTime(e.Interval)
}

func (e KLineEvent) String() string {
	return fmt.Sprintf("%s %s %s", e.Symbol, e.Interval, e.KLine)
}
