// SPDX-License-Identifier: MIT
package analysis

import "gonum.org/v1/gonum/stat"

// History is a bounded FIFO of recent values. Inserting into a full history
// evicts the oldest value first.
type History[T float32 | float64] struct {
	values   []T
	scratch  []float64
	capacity int
}

// NewHistory returns an empty history holding at most capacity values.
func NewHistory[T float32 | float64](capacity int) *History[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &History[T]{
		values:   make([]T, 0, capacity),
		scratch:  make([]float64, 0, capacity),
		capacity: capacity,
	}
}

// Insert appends v, dropping the oldest value when full.
func (h *History[T]) Insert(v T) {
	if len(h.values) >= h.capacity {
		copy(h.values, h.values[1:])
		h.values = h.values[:len(h.values)-1]
	}
	h.values = append(h.values, v)
}

// Len returns the number of stored values.
func (h *History[T]) Len() int { return len(h.values) }

// Cap returns the capacity.
func (h *History[T]) Cap() int { return h.capacity }

// Values returns a copy of the stored values, oldest first.
func (h *History[T]) Values() []T {
	out := make([]T, len(h.values))
	copy(out, h.values)
	return out
}

// Clear removes all values.
func (h *History[T]) Clear() {
	h.values = h.values[:0]
}

// Mean returns the arithmetic mean, or 0 when empty.
func (h *History[T]) Mean() float64 {
	if len(h.values) == 0 {
		return 0
	}
	return stat.Mean(h.float64s(), nil)
}

// Variance returns the population variance, or 0 with fewer than two values.
func (h *History[T]) Variance() float64 {
	if len(h.values) < 2 {
		return 0
	}
	_, v := stat.PopMeanVariance(h.float64s(), nil)
	return v
}

func (h *History[T]) float64s() []float64 {
	h.scratch = h.scratch[:0]
	for _, v := range h.values {
		h.scratch = append(h.scratch, float64(v))
	}
	return h.scratch
}
