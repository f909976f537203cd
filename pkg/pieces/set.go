package pieces

import (
	"context"
	"iter"
	"log/slog"

	"github.com/Sumatoshi-tech/pieces/pkg/alg/interval"
	"github.com/Sumatoshi-tech/pieces/pkg/rbtree"
)

// Set is the set of present indices in [0, size), stored as disjoint,
// non-adjacent closed intervals. The tree comparator treats overlapping
// intervals as equal, so a single-index probe finds the interval covering it.
type Set struct {
	registry

	tree    *rbtree.Tree[interval.Interval]
	size    int
	missing int
	logger  *slog.Logger
}

// NewSet creates an empty set over [0, size).
func NewSet(size int, opts ...Option) *Set {
	o := newOptions(opts)
	size = max(size, 0)

	return &Set{
		registry: newRegistry(o.recorder),
		tree:     rbtree.New(interval.Compare),
		size:     size,
		missing:  size,
		logger:   o.logger,
	}
}

// Size returns the exclusive upper bound of the domain.
func (s *Set) Size() int {
	return s.size
}

// Missing returns the number of absent indices.
func (s *Set) Missing() int {
	return s.missing
}

// Len returns the number of stored intervals.
func (s *Set) Len() int {
	return s.tree.Len()
}

// All yields the stored intervals in ascending order.
func (s *Set) All() iter.Seq[interval.Interval] {
	return s.tree.Values()
}

func (s *Set) inDomain(index int) bool {
	if index >= 0 && index < s.size {
		return true
	}

	s.logger.Debug("ignoring piece outside domain", "index", index, "size", s.size)

	return false
}

// Add marks index present, merging it with adjacent intervals.
func (s *Set) Add(index int) {
	if !s.inDomain(index) {
		return
	}

	probe := interval.Point(index)

	if s.tree.Find(probe).Valid() {
		return
	}

	lower, upper := s.tree.Closest(probe)

	joinLower := lower.Valid() && lower.Value().End == index-1
	joinUpper := upper.Valid() && upper.Value().Start == index+1

	switch {
	case joinLower && joinUpper:
		end := upper.Value().End

		// Deleting may move values between nodes, so the lower interval is
		// looked up again afterwards.
		s.tree.Delete(upper.Value())
		s.tree.Find(interval.Point(index - 1)).Ptr().End = end

		s.logger.Debug("merged ranges", "index", index, "end", end)
	case joinLower:
		lower.Ptr().End = index
	case joinUpper:
		upper.Ptr().Start = index
	default:
		s.tree.Insert(probe)
	}

	s.missing--
	s.recorder.Added(index)
	s.notify(index)
}

// Delete marks index absent, shrinking or splitting the interval covering it.
func (s *Set) Delete(index int) {
	if !s.inDomain(index) {
		return
	}

	probe := interval.Point(index)

	match := s.tree.Find(probe)
	if !match.Valid() {
		return
	}

	covering := match.Value()

	switch {
	case covering.Start == index && covering.End == index:
		s.tree.Delete(probe)
	case covering.Start == index:
		match.Ptr().Start++
	case covering.End == index:
		match.Ptr().End--
	default:
		match.Ptr().End = index - 1
		s.tree.Insert(interval.New(index+1, covering.End))

		s.logger.Debug("split range", "index", index, "range", covering)
	}

	s.missing++
	s.recorder.Removed(index)
}

// Has reports whether index is present.
func (s *Set) Has(index int) bool {
	probe := interval.Point(index)

	if s.tree.Find(probe).Valid() {
		return true
	}

	lower, upper := s.tree.Closest(probe)

	return (lower.Valid() && lower.Value().Contains(index)) ||
		(upper.Valid() && upper.Value().Contains(index))
}

// GroupOf returns the interval covering index when it is present. Otherwise
// it returns false and the gap between the neighbouring intervals, which
// defaults to 0 below and to size above when there is no neighbour.
func (s *Set) GroupOf(index int) (bool, interval.Interval) {
	probe := interval.Point(index)

	if match := s.tree.Find(probe); match.Valid() {
		return true, match.Value()
	}

	lower, upper := s.tree.Closest(probe)
	gap := interval.New(0, s.size)

	if lower.Valid() {
		gap.Start = lower.Value().End + 1
	}

	if upper.Valid() {
		gap.End = upper.Value().Start - 1
	}

	return false, gap
}

// bounds returns the closed domain {0, size-1} intersected with the optional
// closed limit.
func (s *Set) bounds(limit []interval.Interval) interval.Interval {
	return domainBounds(s.size, limit)
}

// Available yields the present ranges within limit (the whole domain by
// default), each clipped to it, in ascending order.
func (s *Set) Available(limit ...interval.Interval) iter.Seq[interval.Interval] {
	bounds := s.bounds(limit)

	return func(yield func(interval.Interval) bool) {
		if !bounds.Valid() {
			return
		}

		lower, upper := interval.Point(bounds.Start), interval.Point(bounds.End)

		for n := range s.tree.Between(lower, upper, true) {
			if !yield(n.Value().Intersect(bounds)) {
				return
			}
		}
	}
}

// Empty yields the absent ranges within limit, in ascending order.
func (s *Set) Empty(limit ...interval.Interval) iter.Seq[interval.Interval] {
	return interval.Invert(s.Available(limit...), s.bounds(limit))
}

// Clear discards every present index. Pending waits stay registered.
func (s *Set) Clear() {
	s.tree.Clear()
	s.missing = s.size
}

// SetSize changes the domain size. Growing adds absent indices; shrinking
// drops present indices at or beyond n.
func (s *Set) SetSize(n int) {
	n = max(n, 0)
	if n == s.size {
		return
	}

	dropped := 0

	for n < s.size {
		last := s.tree.Last()
		if !last.Valid() || last.Value().End < n {
			break
		}

		r := last.Value()
		if r.Start >= n {
			dropped += r.Len()
			s.tree.Delete(r)

			continue
		}

		dropped += r.End - n + 1
		last.Ptr().End = n - 1

		break
	}

	s.logger.Debug("resized set", "from", s.size, "to", n, "dropped", dropped)

	s.missing += n - s.size + dropped
	s.size = n
}

// Acquire returns a Future resolved once index is present. Indices outside
// the domain never resolve unless the domain grows to include them.
func (s *Set) Acquire(index int) *Future {
	return s.acquire(index, s.Has(index))
}

// Wait blocks until index is present or ctx ends.
func (s *Set) Wait(ctx context.Context, index int) error {
	return s.Acquire(index).Wait(ctx)
}

// Export returns the present ranges.
func (s *Set) Export() Snapshot {
	ranges := make([]interval.Interval, 0, s.tree.Len())
	for r := range s.All() {
		ranges = append(ranges, r)
	}

	return Snapshot{Size: s.size, Ranges: ranges}
}

// Import replaces the set with snap. Ranges are clipped to the snapshot
// domain, sorted and merged, so any input yields a well-formed set. Pending
// waits on indices the snapshot covers are resolved.
func (s *Set) Import(snap Snapshot) {
	s.tree.Clear()
	s.size = max(snap.Size, 0)

	present := 0

	for _, r := range normalize(snap.Ranges, s.size) {
		s.tree.Insert(r)
		present += r.Len()
	}

	s.missing = s.size - present

	s.logger.Debug("imported snapshot", "size", s.size, "ranges", s.tree.Len(), "missing", s.missing)

	s.notifyPresent(s.Has)
}
