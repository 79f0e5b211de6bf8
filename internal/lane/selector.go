package lane

import (
	"math"
	"sort"
)

// Lanes is the left/right lane pair for one frame.
type Lanes struct {
	Left  Line
	Right Line
}

// clusterRank is the record sorted when ranking clusters.
type clusterRank struct {
	index int // position in the input slice
	count int
}

// RankClusters returns cluster indices ordered by member count, largest
// first. Ties keep input order, so the earlier-discovered cluster wins.
func RankClusters(clusters []Cluster) []int {
	ranks := make([]clusterRank, len(clusters))
	for i, c := range clusters {
		ranks[i] = clusterRank{index: i, count: c.MemberCount()}
	}
	sort.SliceStable(ranks, func(a, b int) bool { return ranks[a].count > ranks[b].count })

	order := make([]int, len(ranks))
	for i, r := range ranks {
		order[i] = r.index
	}
	return order
}

// SelectLanes decides which clusters, if any, are the left and right lane
// boundaries. A cluster only qualifies when its mean segment has
// |angle| > MinLaneAngle and a computable bottom-row intercept; when the two
// largest clusters do not both qualify the frame is treated as ambiguous and
// no lane is reported.
func SelectLanes(clusters []Cluster, g Geometry) Lanes {
	return selectLanes(clusters, g, defaultLogger())
}

func selectLanes(clusters []Cluster, g Geometry, lg *Logger) Lanes {
	bottom := float64(g.Height)

	switch len(clusters) {
	case 0:
		return Lanes{}
	case 1:
		mean := clusters[0].Mean
		if !laneAngle(mean) {
			lg.Diagf("single cluster %v rejected: angle %.1f", mean, mean.Angle())
			return Lanes{}
		}
		x, err := mean.XAtY(bottom)
		if err != nil {
			lg.Diagf("single cluster %v: %v", mean, err)
			return Lanes{}
		}
		if x < float64(g.Width)/2 {
			return Lanes{Left: LineOf(mean)}
		}
		return Lanes{Right: LineOf(mean)}
	}

	order := RankClusters(clusters)
	a, b := clusters[order[0]].Mean, clusters[order[1]].Mean
	if !laneAngle(a) || !laneAngle(b) {
		lg.Diagf("ambiguous lanes: top clusters %v (%.1f) and %v (%.1f)", a, a.Angle(), b, b.Angle())
		return Lanes{}
	}

	xa, errA := a.XAtY(bottom)
	xb, errB := b.XAtY(bottom)
	if errA != nil || errB != nil {
		lg.Diagf("degenerate top clusters %v, %v", a, b)
		return Lanes{}
	}
	if xa < xb {
		return Lanes{Left: LineOf(a), Right: LineOf(b)}
	}
	return Lanes{Left: LineOf(b), Right: LineOf(a)}
}

func laneAngle(s Segment) bool {
	return math.Abs(s.Angle()) > MinLaneAngle
}
