package lane

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func clusterOf(order int, mean Segment, count int) Cluster {
	members := make([]Segment, count)
	for i := range members {
		members[i] = mean
	}
	return Cluster{Order: order, Members: members, Mean: mean}
}

var (
	// Bottom-row intercepts ≈ 54.5 and 345.5 in a 400x480 frame.
	leftMean  = Segment{180, 250, 60, 470}
	rightMean = Segment{220, 250, 340, 470}
)

func TestSelectLanes_NoClusters(t *testing.T) {
	t.Parallel()
	lanes := SelectLanes(nil, testGeometry())
	assert.False(t, lanes.Left.Present())
	assert.False(t, lanes.Right.Present())
}

func TestSelectLanes_SingleCluster(t *testing.T) {
	t.Parallel()
	g := testGeometry()

	tests := []struct {
		name      string
		mean      Segment
		wantLeft  Line
		wantRight Line
	}{
		{"left of centre", leftMean, LineOf(leftMean), NoLine},
		{"right of centre", rightMean, NoLine, LineOf(rightMean)},
		// Near-vertical mean fails the lane angle check.
		{"shallow angle", Segment{200, 250, 210, 470}, NoLine, NoLine},
		// Horizontal mean has no bottom-row intercept.
		{"degenerate", Segment{0, 300, 100, 300}, NoLine, NoLine},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			lanes := SelectLanes([]Cluster{clusterOf(0, tt.mean, 4)}, g)
			assert.Equal(t, tt.wantLeft, lanes.Left)
			assert.Equal(t, tt.wantRight, lanes.Right)
		})
	}
}

func TestSelectLanes_TwoLargestByCount(t *testing.T) {
	t.Parallel()
	g := testGeometry()

	noise := Segment{150, 200, 100, 300}
	clusters := []Cluster{
		clusterOf(0, noise, 2),
		clusterOf(1, rightMean, 9),
		clusterOf(2, leftMean, 5),
	}
	lanes := SelectLanes(clusters, g)
	assert.Equal(t, LineOf(leftMean), lanes.Left)
	assert.Equal(t, LineOf(rightMean), lanes.Right)
}

func TestSelectLanes_OrderedByBottomIntercept(t *testing.T) {
	t.Parallel()
	g := testGeometry()

	// Both lines left of centre: the one further left is still "left".
	a := Segment{200, 250, 120, 470} // bottom x ≈ 116
	b := Segment{180, 250, 60, 470}
	lanes := SelectLanes([]Cluster{clusterOf(0, a, 6), clusterOf(1, b, 4)}, g)
	assert.Equal(t, LineOf(b), lanes.Left)
	assert.Equal(t, LineOf(a), lanes.Right)
}

func TestSelectLanes_AmbiguousTopPair(t *testing.T) {
	t.Parallel()
	g := testGeometry()

	shallow := Segment{200, 250, 210, 470}
	clusters := []Cluster{
		clusterOf(0, rightMean, 9),
		clusterOf(1, shallow, 7),
		clusterOf(2, leftMean, 5), // valid but only third largest
	}
	lanes := SelectLanes(clusters, g)
	assert.False(t, lanes.Left.Present())
	assert.False(t, lanes.Right.Present())
}

func TestSelectLanes_DegenerateTopPair(t *testing.T) {
	t.Parallel()
	horizontal := Segment{0, 300, 100, 300}
	lanes := SelectLanes([]Cluster{clusterOf(0, horizontal, 9), clusterOf(1, leftMean, 5)}, testGeometry())
	assert.Equal(t, Lanes{}, lanes)
}

func TestRankClusters_StableOnTies(t *testing.T) {
	t.Parallel()
	clusters := []Cluster{
		clusterOf(0, leftMean, 2),
		clusterOf(1, rightMean, 3),
		clusterOf(2, leftMean, 3),
		clusterOf(3, rightMean, 1),
	}
	if diff := cmp.Diff([]int{1, 2, 0, 3}, RankClusters(clusters)); diff != "" {
		t.Errorf("rank mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectLanes_TieBreakDeterministic(t *testing.T) {
	t.Parallel()
	g := testGeometry()

	other := Segment{230, 250, 380, 470}
	clusters := []Cluster{
		clusterOf(0, rightMean, 4),
		clusterOf(1, leftMean, 4),
		clusterOf(2, other, 4), // tied, but discovered last
	}
	first := SelectLanes(clusters, g)
	assert.Equal(t, LineOf(leftMean), first.Left)
	assert.Equal(t, LineOf(rightMean), first.Right)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, SelectLanes(clusters, g))
	}
}
