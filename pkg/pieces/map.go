package pieces

import (
	"context"
	"iter"
	"log/slog"

	"github.com/Sumatoshi-tech/pieces/pkg/alg/interval"
)

// slot holds the value of one index; ok marks presence.
type slot[T any] struct {
	value T
	ok    bool
}

// Map stores one value per present index in a dense slice. Range queries scan
// the domain linearly.
type Map[T any] struct {
	registry

	slots   []slot[T]
	size    int
	missing int
	logger  *slog.Logger
}

// NewMap creates an empty map over [0, size).
func NewMap[T any](size int, opts ...Option) *Map[T] {
	o := newOptions(opts)
	size = max(size, 0)

	return &Map[T]{
		registry: newRegistry(o.recorder),
		size:     size,
		missing:  size,
		logger:   o.logger,
	}
}

// Size returns the exclusive upper bound of the domain.
func (m *Map[T]) Size() int {
	return m.size
}

// Missing returns the number of absent indices.
func (m *Map[T]) Missing() int {
	return m.missing
}

// Boundaries returns the domain as the half-open interval [0, size).
func (m *Map[T]) Boundaries() interval.Interval {
	return interval.New(0, m.size)
}

// Get returns the value at index and whether it is present.
func (m *Map[T]) Get(index int) (T, bool) {
	if index < 0 || index >= len(m.slots) {
		var zero T

		return zero, false
	}

	s := m.slots[index]

	return s.value, s.ok
}

// Has reports whether index holds a value.
func (m *Map[T]) Has(index int) bool {
	_, ok := m.Get(index)

	return ok
}

// Set stores value at index, making it present.
func (m *Map[T]) Set(index int, value T) {
	if index < 0 || index >= m.size {
		m.logger.Debug("ignoring piece outside domain", "index", index, "size", m.size)

		return
	}

	if index >= len(m.slots) {
		m.slots = append(m.slots, make([]slot[T], index+1-len(m.slots))...)
	}

	added := !m.slots[index].ok
	m.slots[index] = slot[T]{value: value, ok: true}

	if added {
		m.missing--
		m.recorder.Added(index)
	}

	m.notify(index)
}

// Delete removes the value at index.
func (m *Map[T]) Delete(index int) {
	if !m.Has(index) {
		return
	}

	m.slots[index] = slot[T]{}
	m.missing++
	m.recorder.Removed(index)
}

// Clear discards every value. Pending waits stay registered.
func (m *Map[T]) Clear() {
	m.slots = nil
	m.missing = m.size
}

// SetSize changes the domain size. Growing adds absent indices; shrinking
// drops the values at or beyond n.
func (m *Map[T]) SetSize(n int) {
	n = max(n, 0)
	if n == m.size {
		return
	}

	dropped := 0

	if len(m.slots) > n {
		for _, s := range m.slots[n:] {
			if s.ok {
				dropped++
			}
		}

		clear(m.slots[n:])
		m.slots = m.slots[:n]
	}

	m.logger.Debug("resized map", "from", m.size, "to", n, "dropped", dropped)

	m.missing += n - m.size + dropped
	m.size = n
}

// retain drops every value whose index fails keep.
func (m *Map[T]) retain(keep func(int) bool) {
	for index := range m.slots {
		if m.slots[index].ok && !keep(index) {
			m.Delete(index)
		}
	}
}

// Available yields the maximal runs of present indices within limit.
func (m *Map[T]) Available(limit ...interval.Interval) iter.Seq[interval.Interval] {
	bounds := domainBounds(m.size, limit)

	return func(yield func(interval.Interval) bool) {
		run, open := interval.Interval{}, false

		for index := max(bounds.Start, 0); index <= bounds.End; index++ {
			if m.Has(index) {
				if !open {
					run, open = interval.Point(index), true
				} else {
					run.End = index
				}

				continue
			}

			if open {
				if !yield(run) {
					return
				}

				open = false
			}
		}

		if open {
			yield(run)
		}
	}
}

// Empty yields the maximal runs of absent indices within limit.
func (m *Map[T]) Empty(limit ...interval.Interval) iter.Seq[interval.Interval] {
	return interval.Invert(m.Available(limit...), domainBounds(m.size, limit))
}

// Acquire returns a Future resolved once index holds a value.
func (m *Map[T]) Acquire(index int) *Future {
	return m.acquire(index, m.Has(index))
}

// Wait blocks until index holds a value or ctx ends.
func (m *Map[T]) Wait(ctx context.Context, index int) error {
	return m.Acquire(index).Wait(ctx)
}
