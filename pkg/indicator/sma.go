package indicator

import (
	"math"

	"github.com/c9s/kfeed/pkg/series"
)

// SMA is the simple moving average of length elements starting at each index.
// Indexes whose window runs past the end of source yield 0.
func SMA(source series.Series[float64], length int) *series.Indicator[float64] {
	return series.Map[float64, float64](source, func(_ float64, i int) float64 {
		var sum float64
		for j := 0; j < length; j++ {
			sum += source.At(i + j).TakeOr(math.NaN())
		}

		if math.IsNaN(sum) {
			return 0
		}
		return sum / float64(length)
	})
}
