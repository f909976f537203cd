// Package interval provides the closed index range used to describe runs of
// present or absent pieces, together with the small interval algebra the
// presence structures are built on: overlap, intersection, union, complement
// within bounds, and the size of a sequence of disjoint ranges.
//
// Two readings of an Interval coexist. Piece enumeration treats End as the
// last included index (closed), so a fully present 6 piece domain is {0, 5}.
// Size and Empty treat the pair as a half-open magnitude, End - Start.
package interval

import (
	"fmt"
	"iter"
)

// Interval is a pair of indices. See the package documentation for the two
// conventions it is read under.
type Interval struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end"   yaml:"end"`
}

// New creates an interval from its bounds.
func New(start, end int) Interval {
	return Interval{Start: start, End: end}
}

// Point creates the single-index interval {index, index}.
func Point(index int) Interval {
	return Interval{Start: index, End: index}
}

// String formats the interval as [start, end].
func (r Interval) String() string {
	return fmt.Sprintf("[%d, %d]", r.Start, r.End)
}

// Size is the half-open magnitude End - Start.
func (r Interval) Size() int {
	return r.End - r.Start
}

// Empty reports whether the half-open magnitude is not positive.
func (r Interval) Empty() bool {
	return r.End <= r.Start
}

// Len is the number of indices covered under the closed reading.
func (r Interval) Len() int {
	if r.End < r.Start {
		return 0
	}

	return r.End - r.Start + 1
}

// Valid reports whether the closed reading covers at least one index.
func (r Interval) Valid() bool {
	return r.Start <= r.End
}

// Contains reports whether index lies within the closed range.
func (r Interval) Contains(index int) bool {
	return r.Start <= index && index <= r.End
}

// Intersect returns {max(starts), min(ends)}. The result is not normalized:
// disjoint inputs produce an interval with End < Start.
func (r Interval) Intersect(other Interval) Interval {
	return Interval{Start: max(r.Start, other.Start), End: min(r.End, other.End)}
}

// Union returns the smallest interval covering both inputs.
func (r Interval) Union(other Interval) Interval {
	return Interval{Start: min(r.Start, other.Start), End: max(r.End, other.End)}
}

// Overlap reports whether a and b share at least one index.
func Overlap(a, b Interval) bool {
	return a.Start <= b.End && b.Start <= a.End
}

// Compare orders disjoint intervals by Start and reports overlapping ones as
// equal. A single-index probe therefore compares equal to the stored interval
// covering it.
func Compare(a, b Interval) int {
	switch {
	case Overlap(a, b):
		return 0
	case a.Start < b.Start:
		return -1
	default:
		return 1
	}
}

// Invert yields the gaps between ranges inside the closed bounds. ranges must
// be sorted, disjoint and already clipped to bounds.
func Invert(ranges iter.Seq[Interval], bounds Interval) iter.Seq[Interval] {
	return func(yield func(Interval) bool) {
		cursor := bounds.Start

		for r := range ranges {
			if cursor < r.Start {
				if !yield(Interval{Start: cursor, End: r.Start - 1}) {
					return
				}
			}

			cursor = max(cursor, r.End+1)
		}

		if cursor <= bounds.End {
			yield(Interval{Start: cursor, End: bounds.End})
		}
	}
}

// TotalSize sums the half-open magnitudes of ranges.
func TotalSize(ranges iter.Seq[Interval]) int {
	total := 0

	for r := range ranges {
		total += r.Size()
	}

	return total
}

// TotalLen sums the closed lengths of ranges.
func TotalLen(ranges iter.Seq[Interval]) int {
	total := 0

	for r := range ranges {
		total += r.Len()
	}

	return total
}
