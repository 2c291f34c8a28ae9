package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c9s/kfeed/pkg/series"
)

func TestSMA(t *testing.T) {
	assert.Equal(t, []float64{16, 14, 12, 10, 8, 6, 4, 2, 0, 0}, series.Values(SMA(numbers(10), 3)))
	assert.Equal(t, 0.0, SMA(numbers(2), 3).At(0).Unwrap())
}

func TestEMA(t *testing.T) {
	ema := EMA(numbers(10), 3)
	assert.Equal(t,
		[]float64{18, 17, 15.5, 13.75, 11.875, 9.9375, 7.96875, 5.984375, 3.9921875, 1.99609375},
		series.Values(ema))
	assert.Equal(t, ema.At(9), ema.At(-1))
	assert.True(t, ema.At(10).IsNone())
}

func TestEMA_ReadsSourceOncePerIndex(t *testing.T) {
	counts := make([]int, 50)
	source := series.NewIndicator(50, func(_ series.Series[float64], i int) float64 {
		counts[i]++
		return float64(i)
	})

	ema := EMA(source, 5)
	ema.At(49)
	ema.At(20)
	SMA(source, 5).At(10)

	for i, c := range counts {
		assert.Equal(t, 1, c, "index %d", i)
	}
}
