package interval

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestOverlap verifies overlap detection including shared endpoints.
func TestOverlap(t *testing.T) {
	t.Parallel()

	base := New(0, 2)

	tests := []struct {
		other Interval
		want  bool
	}{
		{New(0, 2), true},
		{New(0, 6), true},
		{New(1, 6), true},
		{New(1, 2), true},
		{New(2, 2), true},
		{New(0, 0), true},
		{New(3, 3), false},
		{New(3, 6), false},
		{New(-2, -1), false},
		{New(3, 4), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Overlap(base, tt.other), "%v vs %v", base, tt.other)
		assert.Equal(t, tt.want, Overlap(tt.other, base), "%v vs %v", tt.other, base)
	}
}

// TestIntersect verifies intersection bounds.
func TestIntersect(t *testing.T) {
	t.Parallel()

	base := New(0, 2)

	assert.Equal(t, New(1, 2), base.Intersect(New(1, 3)))
	assert.Equal(t, New(0, 2), base.Intersect(New(0, 6)))
	assert.Equal(t, New(0, 2), base.Intersect(New(-6, 6)))
	assert.Equal(t, New(0, 1), base.Intersect(New(-6, 1)))
	assert.False(t, base.Intersect(New(3, 6)).Valid())
}

// TestUnion verifies the covering interval.
func TestUnion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, New(0, 6), New(0, 2).Union(New(4, 6)))
	assert.Equal(t, New(-1, 2), New(0, 2).Union(New(-1, 1)))
}

// TestSizeConventions verifies the half-open and closed readings side by side.
func TestSizeConventions(t *testing.T) {
	t.Parallel()

	full := New(0, 5)

	assert.Equal(t, 5, full.Size())
	assert.Equal(t, 6, full.Len())
	assert.False(t, full.Empty())

	point := Point(3)

	assert.Equal(t, 0, point.Size())
	assert.True(t, point.Empty())
	assert.Equal(t, 1, point.Len())
	assert.True(t, point.Valid())
	assert.Equal(t, 0, New(4, 3).Len())
}

// TestCompare verifies overlap-as-equality ordering.
func TestCompare(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Compare(New(2, 5), Point(3)))
	assert.Equal(t, 0, Compare(Point(5), New(2, 5)))
	assert.Negative(t, Compare(New(0, 1), Point(3)))
	assert.Positive(t, Compare(New(4, 9), Point(3)))
}

// TestInvert verifies gap enumeration within closed bounds.
func TestInvert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		ranges []Interval
		bounds Interval
		want   []Interval
	}{
		{"nothing present", nil, New(0, 5), []Interval{New(0, 5)}},
		{"all present", []Interval{New(0, 5)}, New(0, 5), nil},
		{"leading gap", []Interval{New(2, 5)}, New(0, 5), []Interval{New(0, 1)}},
		{"middle gap", []Interval{New(0, 2), New(4, 5)}, New(0, 5), []Interval{New(3, 3)}},
		{
			"multiple gaps",
			[]Interval{Point(1), Point(4)},
			New(0, 5),
			[]Interval{Point(0), New(2, 3), Point(5)},
		},
		{"sub-range", []Interval{Point(1), Point(4)}, New(1, 4), []Interval{New(2, 3)}},
	}

	for _, tt := range tests {
		got := slices.Collect(Invert(slices.Values(tt.ranges), tt.bounds))
		assert.Equal(t, tt.want, got, tt.name)
	}
}

// TestInvert_StopsEarly verifies the sequence honors an early break.
func TestInvert_StopsEarly(t *testing.T) {
	t.Parallel()

	ranges := []Interval{Point(1), Point(3), Point(5)}

	var got []Interval

	for gap := range Invert(slices.Values(ranges), New(0, 9)) {
		got = append(got, gap)

		break
	}

	assert.Equal(t, []Interval{Point(0)}, got)
}

// TestTotals verifies both size sums.
func TestTotals(t *testing.T) {
	t.Parallel()

	ranges := []Interval{New(0, 2), Point(4), New(6, 9)}

	assert.Equal(t, 5, TotalSize(slices.Values(ranges)))
	assert.Equal(t, 8, TotalLen(slices.Values(ranges)))
}
