package indicator

import (
	"github.com/c9s/kfeed/pkg/series"
)

// EMA is the exponential moving average. Index 0 seeds with source[0], every
// later index reads the previous output of the same indicator.
func EMA(source series.Series[float64], length int) *series.Indicator[float64] {
	multiplier := 2.0 / float64(length+1)
	return series.NewIndicator(source.Length(), func(self series.Series[float64], i int) float64 {
		v := source.At(i).Unwrap()
		if i == 0 {
			return v
		}

		prev := self.At(i - 1).Unwrap()
		return (v-prev)*multiplier + prev
	})
}
