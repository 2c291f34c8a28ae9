// Package store keeps the most recent klines per symbol and interval for
// strategies to read while a feed is being consumed.
package store

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/c9s/kfeed/pkg/metrics"
	"github.com/c9s/kfeed/pkg/series"
	"github.com/c9s/kfeed/pkg/types"
)

const DefaultHistory = 100

// HistoryOption configures the window of one interval.
type HistoryOption struct {
	// History is the number of klines kept, DefaultHistory when zero.
	History int `json:"history" yaml:"history"`

	// Required is the number of klines needed before the interval is ready.
	Required int `json:"required" yaml:"required"`
}

type RuntimeOptions struct {
	// Interval, when set, is the only interval that can ever be ready.
	Interval types.Interval `json:"interval,omitempty" yaml:"interval,omitempty"`

	History map[types.Interval]HistoryOption `json:"history,omitempty" yaml:"history,omitempty"`

	// ClearOnReset drops every stored window on Reset.
	ClearOnReset bool `json:"clearOnReset,omitempty" yaml:"clearOnReset,omitempty"`
}

func (o RuntimeOptions) capacity(interval types.Interval) int {
	if opt, ok := o.History[interval]; ok && opt.History > 0 {
		return opt.History
	}
	return DefaultHistory
}

type key struct {
	symbol   types.Symbol
	interval types.Interval
}

// KLineSeries holds the six parallel sequences of one key, newest first.
// All six always have the same length.
type KLineSeries struct {
	Time   series.Slice[float64]
	Open   series.Slice[float64]
	High   series.Slice[float64]
	Low    series.Slice[float64]
	Close  series.Slice[float64]
	Volume series.Slice[float64]
}

func (s KLineSeries) Length() int {
	return s.Time.Length()
}

// Runtime is a bounded sliding window store keyed by symbol and interval.
type Runtime struct {
	options RuntimeOptions

	mu sync.RWMutex

	// windows are kept oldest first, series are produced newest first
	windows map[key][]types.KLine

	current *key
}

func NewRuntime(options RuntimeOptions) *Runtime {
	return &Runtime{
		options: options,
		windows: make(map[key][]types.KLine),
	}
}

// Push prepends the kline to the key's window and evicts the oldest entry
// once the configured history is exceeded. Klines are expected in open time
// order per key, Push does not validate it.
func (r *Runtime) Push(symbol types.Symbol, k types.KLine, interval types.Interval) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kk := key{symbol: symbol, interval: interval}
	window := append(r.windows[kk], k)
	if limit := r.options.capacity(interval); len(window) > limit {
		window = window[len(window)-limit:]
	}

	r.windows[kk] = window
	r.current = &kk

	metrics.RuntimePushedKLinesMetrics.WithLabelValues(symbol.String(), interval.String()).Inc()
	metrics.RuntimeWindowLengthMetrics.WithLabelValues(symbol.String(), interval.String()).Set(float64(len(window)))
}

// Series returns a copy of the key's window as six newest-first sequences.
// A key that was never pushed yields six empty sequences.
func (r *Runtime) Series(symbol types.Symbol, interval types.Interval) KLineSeries {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return newKLineSeries(r.windows[key{symbol: symbol, interval: interval}])
}

func newKLineSeries(window []types.KLine) KLineSeries {
	n := len(window)
	s := KLineSeries{
		Time:   make(series.Slice[float64], n),
		Open:   make(series.Slice[float64], n),
		High:   make(series.Slice[float64], n),
		Low:    make(series.Slice[float64], n),
		Close:  make(series.Slice[float64], n),
		Volume: make(series.Slice[float64], n),
	}

	for i, k := range window {
		j := n - 1 - i
		s.Time[j] = float64(k.Time)
		s.Open[j] = k.Open
		s.High[j] = k.High
		s.Low[j] = k.Low
		s.Close[j] = k.Close
		s.Volume[j] = k.Volume
	}
	return s
}

// IsReady reports whether the symbol has enough history for the given interval.
func (r *Runtime) IsReady(symbol types.Symbol, interval types.Interval) bool {
	if r.options.Interval != "" && r.options.Interval != interval {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for iv, opt := range r.options.History {
		window, ok := r.windows[key{symbol: symbol, interval: iv}]
		if !ok {
			return false
		}

		if len(window) < opt.Required {
			return false
		}
	}

	return true
}

// Current returns the symbol and interval of the latest push.
func (r *Runtime) Current() (types.Symbol, types.Interval, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.current == nil {
		return types.Symbol{}, "", false
	}
	return r.current.symbol, r.current.interval, true
}

// Reset clears the current pointer. Stored windows survive unless
// ClearOnReset is set.
func (r *Runtime) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current = nil
	if r.options.ClearOnReset {
		log.Debugf("runtime: clearing %d windows on reset", len(r.windows))
		r.windows = make(map[key][]types.KLine)
	}
}

// Keys lists the stored subscriptions.
func (r *Runtime) Keys() []types.Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]types.Subscription, 0, len(r.windows))
	for k := range r.windows {
		keys = append(keys, types.Subscription{Symbol: k.symbol, Interval: k.interval})
	}
	return keys
}
