package indicator

import (
	"fmt"
	"math"
	"reflect"

	"github.com/moznion/go-optional"

	"github.com/c9s/kfeed/pkg/series"
)

// Number broadcasts a scalar to every index.
type Number float64

func (n Number) Length() int {
	return math.MaxInt32
}

func (n Number) At(_ int) optional.Option[float64] {
	return optional.Some(float64(n))
}

var _ series.Series[float64] = Number(0)

// switchIface converts a series or a number into a series.
func switchIface(v interface{}) series.Series[float64] {
	switch tp := v.(type) {
	case float64:
		return Number(tp)
	case float32:
		return Number(float64(tp))
	case int:
		return Number(float64(tp))
	case int32:
		return Number(float64(tp))
	case int64:
		return Number(float64(tp))
	case Number:
		return tp
	case series.Series[float64]:
		return tp
	case []float64:
		return series.Slice[float64](tp)
	default:
		panic(fmt.Sprintf("input should be either series.Series[float64] or numbers, got %s", reflect.TypeOf(v)))
	}
}

// operandLength returns the shortest length among the series operands.
// Numbers do not bound the result.
func operandLength(operands ...series.Series[float64]) int {
	length := -1
	for _, s := range operands {
		if _, ok := s.(Number); ok {
			continue
		}

		if length < 0 || s.Length() < length {
			length = s.Length()
		}
	}

	if length < 0 {
		return 0
	}
	return length
}

// longestLength returns the longest length among the series operands.
func longestLength(operands ...series.Series[float64]) int {
	length := 0
	for _, s := range operands {
		if _, ok := s.(Number); ok {
			continue
		}

		length = max(length, s.Length())
	}
	return length
}
