package pieces

import (
	"cmp"
	"slices"

	"github.com/Sumatoshi-tech/pieces/pkg/alg/interval"
)

// Snapshot is the serializable presence state of a Set: the domain size and
// the present indices as ascending, disjoint closed ranges. Values are not
// part of it.
type Snapshot struct {
	Size   int                 `json:"size"   yaml:"size"`
	Ranges []interval.Interval `json:"ranges" yaml:"ranges"`
}

// Missing returns the number of absent indices the snapshot describes.
func (snap Snapshot) Missing() int {
	return snap.Size - interval.TotalLen(slices.Values(snap.Ranges))
}

// domainBounds returns the closed domain of a size, narrowed by an optional
// closed limit.
func domainBounds(size int, limit []interval.Interval) interval.Interval {
	bounds := interval.New(0, size-1)
	if len(limit) > 0 {
		bounds = bounds.Intersect(limit[0])
	}

	return bounds
}

// normalize clips ranges to [0, size), drops empty ones, and merges the rest
// into ascending, disjoint, non-adjacent ranges.
func normalize(ranges []interval.Interval, size int) []interval.Interval {
	domain := interval.New(0, size-1)
	clipped := make([]interval.Interval, 0, len(ranges))

	for _, r := range ranges {
		r = r.Intersect(domain)
		if r.Valid() {
			clipped = append(clipped, r)
		}
	}

	slices.SortFunc(clipped, func(a, b interval.Interval) int {
		return cmp.Compare(a.Start, b.Start)
	})

	merged := clipped[:0]

	for _, r := range clipped {
		if n := len(merged); n > 0 && r.Start <= merged[n-1].End+1 {
			merged[n-1].End = max(merged[n-1].End, r.End)

			continue
		}

		merged = append(merged, r)
	}

	return merged
}
