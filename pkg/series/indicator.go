package series

import (
	"sync"

	"github.com/moznion/go-optional"
)

type slot[T any] struct {
	once  sync.Once
	value T
}

// Indicator is a Series backed by a per-index function and a per-instance cache.
// The function is evaluated at most once per index for the lifetime of the
// instance, regardless of call order or concurrent readers. Composition creates
// new instances with their own caches.
type Indicator[T any] struct {
	length int
	fn     func(self Series[T], i int) T
	slots  []slot[T]
}

// NewIndicator creates an indicator of the given length. fn receives the
// indicator itself so that recurrences can read their own earlier output.
func NewIndicator[T any](length int, fn func(self Series[T], i int) T) *Indicator[T] {
	if length < 0 {
		length = 0
	}

	return &Indicator[T]{
		length: length,
		fn:     fn,
		slots:  make([]slot[T], length),
	}
}

func (ind *Indicator[T]) Length() int {
	return ind.length
}

func (ind *Indicator[T]) At(i int) optional.Option[T] {
	i, ok := Normalize(i, ind.length)
	if !ok {
		return optional.None[T]()
	}

	s := &ind.slots[i]
	s.once.Do(func() {
		s.value = ind.fn(ind, i)
	})
	return optional.Some(s.value)
}

var _ Series[float64] = &Indicator[float64]{}
