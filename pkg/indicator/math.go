package indicator

import (
	"math"

	"github.com/c9s/kfeed/pkg/series"
)

func mapFloat(source series.Series[float64], fn func(float64) float64) *series.Indicator[float64] {
	return series.Map[float64, float64](source, func(v float64, _ int) float64 {
		return fn(v)
	})
}

func Abs(source series.Series[float64]) *series.Indicator[float64] {
	return mapFloat(source, math.Abs)
}

func Acos(source series.Series[float64]) *series.Indicator[float64] {
	return mapFloat(source, math.Acos)
}

func Asin(source series.Series[float64]) *series.Indicator[float64] {
	return mapFloat(source, math.Asin)
}

func Atan(source series.Series[float64]) *series.Indicator[float64] {
	return mapFloat(source, math.Atan)
}

func Ceil(source series.Series[float64]) *series.Indicator[float64] {
	return mapFloat(source, math.Ceil)
}

func Cos(source series.Series[float64]) *series.Indicator[float64] {
	return mapFloat(source, math.Cos)
}

func Exp(source series.Series[float64]) *series.Indicator[float64] {
	return mapFloat(source, math.Exp)
}

func Floor(source series.Series[float64]) *series.Indicator[float64] {
	return mapFloat(source, math.Floor)
}

// Log is the natural logarithm.
func Log(source series.Series[float64]) *series.Indicator[float64] {
	return mapFloat(source, math.Log)
}

func Log10(source series.Series[float64]) *series.Indicator[float64] {
	return mapFloat(source, math.Log10)
}

func Sin(source series.Series[float64]) *series.Indicator[float64] {
	return mapFloat(source, math.Sin)
}

func Sqrt(source series.Series[float64]) *series.Indicator[float64] {
	return mapFloat(source, math.Sqrt)
}

func Tan(source series.Series[float64]) *series.Indicator[float64] {
	return mapFloat(source, math.Tan)
}

func Pow(source series.Series[float64], exponent float64) *series.Indicator[float64] {
	return mapFloat(source, func(v float64) float64 {
		return math.Pow(v, exponent)
	})
}

// Round rounds to the nearest integer, ties towards positive infinity.
func Round(source series.Series[float64]) *series.Indicator[float64] {
	return mapFloat(source, func(v float64) float64 {
		return math.Floor(v + 0.5)
	})
}

// Sign returns 1, -1 or 0. NaN stays NaN.
func Sign(source series.Series[float64]) *series.Indicator[float64] {
	return mapFloat(source, func(v float64) float64 {
		switch {
		case v > 0:
			return 1
		case v < 0:
			return -1
		default:
			return v
		}
	})
}

func Clamp(source series.Series[float64], lower, upper float64) *series.Indicator[float64] {
	return mapFloat(source, func(v float64) float64 {
		return math.Min(math.Max(v, lower), upper)
	})
}

// Max returns the greatest value per index among series and numbers.
// The result is as long as the longest series, missing elements count as -Inf.
func Max(operands ...interface{}) *series.Indicator[float64] {
	return extremum(math.Inf(-1), math.Max, operands)
}

// Min returns the smallest value per index among series and numbers.
// The result is as long as the longest series, missing elements count as +Inf.
func Min(operands ...interface{}) *series.Indicator[float64] {
	return extremum(math.Inf(1), math.Min, operands)
}

func extremum(missing float64, pick func(a, b float64) float64, operands []interface{}) *series.Indicator[float64] {
	sources := make([]series.Series[float64], len(operands))
	for i, op := range operands {
		sources[i] = switchIface(op)
	}

	return series.NewIndicator(longestLength(sources...), func(_ series.Series[float64], i int) float64 {
		result := missing
		for _, s := range sources {
			result = pick(result, s.At(i).TakeOr(missing))
		}
		return result
	})
}

func windowSum(source series.Series[float64], i, length int) float64 {
	var sum float64
	for j := 0; j < length; j++ {
		if i+j >= source.Length() {
			break
		}
		sum += source.At(i + j).TakeOr(0)
	}
	return sum
}

// Sum is the sliding sum of length elements starting at each index.
// Elements past the end count as zero.
func Sum(source series.Series[float64], length int) *series.Indicator[float64] {
	return series.Map[float64, float64](source, func(_ float64, i int) float64 {
		return windowSum(source, i, length)
	})
}

// Avg is the sliding sum divided by length.
func Avg(source series.Series[float64], length int) *series.Indicator[float64] {
	return series.Map[float64, float64](source, func(_ float64, i int) float64 {
		avg := windowSum(source, i, length) / float64(length)
		if math.IsNaN(avg) {
			return 0
		}
		return avg
	})
}

// Diff returns source[i+length] - source[i], or zero when i+length is past the end.
func Diff(source series.Series[float64], length int) *series.Indicator[float64] {
	return series.Map[float64, float64](source, func(v float64, i int) float64 {
		if i+length < source.Length() {
			return source.At(i+length).TakeOr(0) - v
		}
		return 0
	})
}

func binary(a, b interface{}, fn func(x, y float64) float64) *series.Indicator[float64] {
	aa := switchIface(a)
	bb := switchIface(b)
	return series.NewIndicator(operandLength(aa, bb), func(_ series.Series[float64], i int) float64 {
		return fn(aa.At(i).TakeOr(0), bb.At(i).TakeOr(0))
	})
}

// Add two series, result[i] = a[i] + b[i]
func Add(a interface{}, b interface{}) *series.Indicator[float64] {
	return binary(a, b, func(x, y float64) float64 { return x + y })
}

// Sub two series, result[i] = a[i] - b[i]
func Sub(a interface{}, b interface{}) *series.Indicator[float64] {
	return binary(a, b, func(x, y float64) float64 { return x - y })
}

// Mul two series, result[i] = a[i] * b[i]
func Mul(a interface{}, b interface{}) *series.Indicator[float64] {
	return binary(a, b, func(x, y float64) float64 { return x * y })
}

// Div two series, result[i] = a[i] / b[i]
func Div(a interface{}, b interface{}) *series.Indicator[float64] {
	return binary(a, b, func(x, y float64) float64 { return x / y })
}

func compare(source series.Series[float64], target interface{}, fn func(x, y float64) bool) *series.Indicator[bool] {
	tt := switchIface(target)
	return series.Map[float64, bool](source, func(v float64, i int) bool {
		return fn(v, tt.At(i).TakeOr(math.NaN()))
	})
}

func Gt(source series.Series[float64], target interface{}) *series.Indicator[bool] {
	return compare(source, target, func(x, y float64) bool { return x > y })
}

func Gte(source series.Series[float64], target interface{}) *series.Indicator[bool] {
	return compare(source, target, func(x, y float64) bool { return x >= y })
}

func Lt(source series.Series[float64], target interface{}) *series.Indicator[bool] {
	return compare(source, target, func(x, y float64) bool { return x < y })
}

func Lte(source series.Series[float64], target interface{}) *series.Indicator[bool] {
	return compare(source, target, func(x, y float64) bool { return x <= y })
}

func Eq(source series.Series[float64], target interface{}) *series.Indicator[bool] {
	return compare(source, target, func(x, y float64) bool { return x == y })
}

// Neq is true where the target is missing.
func Neq(source series.Series[float64], target interface{}) *series.Indicator[bool] {
	return compare(source, target, func(x, y float64) bool { return x != y })
}
