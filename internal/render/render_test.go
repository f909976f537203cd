package render_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pieces/internal/render"
	"github.com/Sumatoshi-tech/pieces/pkg/alg/interval"
)

func TestMain(m *testing.M) {
	color.NoColor = true //nolint:reassign // plain output for assertions

	m.Run()
}

func TestSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	render.Summary(&buf, "table", 2000, 500)

	assert.Equal(t, "table: 1,500/2,000 pieces present (75.0%), 500 missing\n", buf.String())
}

func TestSummary_EmptyDomain(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	render.Summary(&buf, "table", 0, 0)

	assert.Contains(t, buf.String(), "(0.0%)")
}

func TestRanges(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	render.Ranges(&buf, "present", []interval.Interval{{Start: 0, End: 4}, {Start: 10, End: 10}}, 0)

	out := buf.String()
	assert.Contains(t, strings.ToLower(out), "present")
	assert.Contains(t, out, "START")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "6")
	assert.NotContains(t, out, "more ranges")
}

func TestRanges_Truncated(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	ranges := []interval.Interval{{Start: 0, End: 0}, {Start: 2, End: 2}, {Start: 4, End: 4}}
	render.Ranges(&buf, "present", ranges, 1)

	assert.Contains(t, buf.String(), "2 more ranges")
}

func TestMissingChart(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, render.MissingChart(&buf, "missing pieces", []int{4, 3, 1, 0}))

	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "missing pieces")
	assert.Contains(t, out, "echarts")
}
