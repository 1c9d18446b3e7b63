package kdtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/sqlite-kd/geom"
)

// traced records the points of every node a query enters.
func traced(tree *Tree) *[]geom.Point {
	var entered []geom.Point
	tree.trace = func(n *Node) { entered = append(entered, n.point) }
	return &entered
}

func TestTree_RangeSkipsDisjointRegions(t *testing.T) {
	tree := scenarioTree()
	entered := traced(tree)

	got := tree.Range(geom.Rect{XMin: 0, YMin: 0, XMax: 0.6, YMax: 0.6})
	assert.ElementsMatch(t, []geom.Point{geom.Pt(0.5, 0.4), geom.Pt(0.2, 0.3)}, got)
	assert.Equal(t, []geom.Point{geom.Pt(0.7, 0.2), geom.Pt(0.5, 0.4), geom.Pt(0.2, 0.3), geom.Pt(0.4, 0.7)}, *entered)
	assert.NotContains(t, *entered, geom.Pt(0.9, 0.6))

	*entered = nil
	got = tree.Range(geom.Rect{XMin: 0.8, YMin: 0.5, XMax: 1, YMax: 0.7})
	assert.Equal(t, []geom.Point{geom.Pt(0.9, 0.6)}, got)
	assert.Equal(t, []geom.Point{geom.Pt(0.7, 0.2), geom.Pt(0.9, 0.6)}, *entered)
}

func TestTree_NearestPrunesAndVisitsNearerRegionFirst(t *testing.T) {
	var testCases = []struct {
		description string
		query       geom.Point
		expect      geom.Point
		entered     []geom.Point
	}{
		{
			description: "right region pruned once (0.5,0.4) is found",
			query:       geom.Pt(0.55, 0.4),
			expect:      geom.Pt(0.5, 0.4),
			entered:     []geom.Point{geom.Pt(0.7, 0.2), geom.Pt(0.5, 0.4), geom.Pt(0.2, 0.3), geom.Pt(0.4, 0.7)},
		},
		{
			description: "nearer right region first, left region pruned",
			query:       geom.Pt(0.95, 0.6),
			expect:      geom.Pt(0.9, 0.6),
			entered:     []geom.Point{geom.Pt(0.7, 0.2), geom.Pt(0.9, 0.6)},
		},
		{
			description: "lower region pruned after the upper match",
			query:       geom.Pt(0.4, 0.75),
			expect:      geom.Pt(0.4, 0.7),
			entered:     []geom.Point{geom.Pt(0.7, 0.2), geom.Pt(0.5, 0.4), geom.Pt(0.4, 0.7)},
		},
	}
	for _, testCase := range testCases {
		tree := scenarioTree()
		entered := traced(tree)
		p, ok := tree.Nearest(testCase.query)
		require.True(t, ok, testCase.description)
		assert.Equal(t, testCase.expect, p, testCase.description)
		assert.Equal(t, testCase.entered, *entered, testCase.description)
	}
}

func TestTree_NearestWithOverflowingDistance(t *testing.T) {
	domain := geom.Rect{XMin: -1e300, YMin: -1e300, XMax: 1e300, YMax: 1e300}
	tree := New(domain)
	tree.Insert(geom.Pt(0.5, 0.5))

	p, ok := tree.Nearest(geom.Pt(1e200, 0))
	require.True(t, ok)
	assert.Equal(t, geom.Pt(0.5, 0.5), p)

	tree.Insert(geom.Pt(-1e300, 0))
	tree.Insert(geom.Pt(0, 1e300))
	p, ok = tree.Nearest(geom.Pt(1e200, 0))
	require.True(t, ok)
	assert.True(t, tree.Contains(p), "%v is not stored", p)
}
