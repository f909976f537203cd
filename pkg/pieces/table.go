package pieces

import (
	"context"
	"iter"

	"github.com/Sumatoshi-tech/pieces/pkg/alg/interval"
)

// Table keeps a Set and a Map of the same size in lockstep. Range queries are
// answered by the Set; values, presence checks and waits by the Map.
type Table[T any] struct {
	set    *Set
	values *Map[T]
}

// NewTable creates an empty table over [0, size). The recorder, if any,
// observes the value store so every transition is reported once.
func NewTable[T any](size int, opts ...Option) *Table[T] {
	o := newOptions(opts)

	return &Table[T]{
		set:    NewSet(size, WithLogger(o.logger)),
		values: NewMap[T](size, opts...),
	}
}

// Size returns the exclusive upper bound of the domain.
func (t *Table[T]) Size() int {
	return t.values.Size()
}

// SetSize resizes both structures.
func (t *Table[T]) SetSize(n int) {
	t.values.SetSize(n)
	t.set.SetSize(n)
}

// Missing returns the number of indices without a value.
func (t *Table[T]) Missing() int {
	return t.values.Missing()
}

// Get returns the value at index and whether it is present.
func (t *Table[T]) Get(index int) (T, bool) {
	return t.values.Get(index)
}

// Set stores value at index.
func (t *Table[T]) Set(index int, value T) {
	t.set.Add(index)
	t.values.Set(index, value)
}

// Has reports whether index holds a value.
func (t *Table[T]) Has(index int) bool {
	return t.values.Has(index)
}

// Delete removes index.
func (t *Table[T]) Delete(index int) {
	t.set.Delete(index)
	t.values.Delete(index)
}

// Clear discards every index.
func (t *Table[T]) Clear() {
	t.set.Clear()
	t.values.Clear()
}

// Acquire returns a Future resolved once index holds a value.
func (t *Table[T]) Acquire(index int) *Future {
	return t.values.Acquire(index)
}

// Wait blocks until index holds a value or ctx ends.
func (t *Table[T]) Wait(ctx context.Context, index int) error {
	return t.values.Wait(ctx, index)
}

// Pending returns the number of indices with registered waits.
func (t *Table[T]) Pending() int {
	return t.values.Pending()
}

// GroupOf returns the present range covering index, or the gap around it.
func (t *Table[T]) GroupOf(index int) (bool, interval.Interval) {
	return t.set.GroupOf(index)
}

// Available yields the present ranges within limit.
func (t *Table[T]) Available(limit ...interval.Interval) iter.Seq[interval.Interval] {
	return t.set.Available(limit...)
}

// Empty yields the absent ranges within limit.
func (t *Table[T]) Empty(limit ...interval.Interval) iter.Seq[interval.Interval] {
	return t.set.Empty(limit...)
}

// Ranges yields every present range.
func (t *Table[T]) Ranges() iter.Seq[interval.Interval] {
	return t.set.All()
}

// Export returns the present ranges.
func (t *Table[T]) Export() Snapshot {
	return t.set.Export()
}

// Import replaces the presence state with snap. Values outside the imported
// ranges are dropped; indices the snapshot covers but that hold no value stay
// absent from Has until the caller stores them.
//
// Missing counts indices without a value, so right after Import it can exceed
// Export().Missing(), which counts indices outside the present ranges.
func (t *Table[T]) Import(snap Snapshot) {
	t.set.Import(snap)
	t.values.SetSize(t.set.Size())
	t.values.retain(t.set.Has)
}
