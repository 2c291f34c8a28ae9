// Package series provides lazily evaluated, index-addressable sequences.
//
// Index 0 is the first element. A negative index counts back from the end,
// At(-1) being the last element. Out of range reads return optional.None
// instead of failing.
package series

import (
	"iter"

	"github.com/moznion/go-optional"
)

// Series is a length-bounded, index-addressable sequence.
type Series[T any] interface {
	Length() int
	At(i int) optional.Option[T]
}

// Normalize maps a possibly negative index into [0, length).
func Normalize(i, length int) (int, bool) {
	if i < 0 {
		i += length
	}

	if i < 0 || i >= length {
		return 0, false
	}

	return i, true
}

// Slice adapts a plain slice into a Series.
type Slice[T any] []T

func (s Slice[T]) Length() int {
	return len(s)
}

func (s Slice[T]) At(i int) optional.Option[T] {
	i, ok := Normalize(i, len(s))
	if !ok {
		return optional.None[T]()
	}

	return optional.Some(s[i])
}

var _ Series[float64] = Slice[float64](nil)

// Map derives a new indicator applying fn to every element of source.
// The result has the length of source at construction time.
func Map[V, T any](source Series[V], fn func(value V, i int) T) *Indicator[T] {
	return NewIndicator(source.Length(), func(_ Series[T], i int) T {
		return fn(source.At(i).Unwrap(), i)
	})
}

// All iterates the series in index order.
func All[T any](s Series[T]) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < s.Length(); i++ {
			if !yield(i, s.At(i).Unwrap()) {
				return
			}
		}
	}
}

// Values materializes the series into a slice.
func Values[T any](s Series[T]) []T {
	values := make([]T, 0, s.Length())
	for _, v := range All(s) {
		values = append(values, v)
	}
	return values
}
