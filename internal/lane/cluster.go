package lane

import (
	"math"

	"github.com/banshee-data/lanekeeper/internal/disjointset"
)

// DefaultAngleTolerance is the clustering tolerance in degrees.
const DefaultAngleTolerance = 5.0

// Cluster is a group of segments sharing an orientation.
type Cluster struct {
	// Order is the discovery index: clusters are numbered by the position of
	// their first member in the clustered input.
	Order   int
	Members []Segment
	// Mean is the component-wise arithmetic mean of the members' endpoint
	// coordinates, rounded to the nearest pixel. It is not a best-fit line.
	Mean Segment
}

// MemberCount returns the number of segments in the cluster.
func (c Cluster) MemberCount() int { return len(c.Members) }

// ClusteringParams holds clustering algorithm parameters.
type ClusteringParams struct {
	AngleTolerance float64 // degrees
}

// Clusterer abstracts the clustering implementation so selection and
// steering can be exercised against alternative strategies.
type Clusterer interface {
	// Cluster partitions segs into disjoint clusters returned in discovery
	// order. An empty input yields nil.
	Cluster(segs []Segment) []Cluster

	// Params returns the current clustering parameters.
	Params() ClusteringParams

	// SetParams updates the clustering parameters.
	SetParams(params ClusteringParams)
}

// AngleClusterer groups segments whose orientations differ by less than the
// angle tolerance. The criterion is single link: a run of gradually rotating
// segments ends up in one cluster even when its extremes are further apart
// than the tolerance.
type AngleClusterer struct {
	params ClusteringParams
}

// NewAngleClusterer creates an AngleClusterer with the given tolerance in
// degrees.
func NewAngleClusterer(tolerance float64) *AngleClusterer {
	return &AngleClusterer{params: ClusteringParams{AngleTolerance: tolerance}}
}

// Compatible reports whether two segments may share a cluster.
func (c *AngleClusterer) Compatible(a, b Segment) bool {
	return math.Abs(a.Angle()-b.Angle()) < c.params.AngleTolerance
}

// Cluster implements Clusterer.
func (c *AngleClusterer) Cluster(segs []Segment) []Cluster {
	if len(segs) == 0 {
		return nil
	}

	tol := c.params.AngleTolerance
	angles := make([]float64, len(segs))
	idx := make([]int, len(segs))
	for i, s := range segs {
		angles[i] = s.Angle()
		idx[i] = i
	}
	labels, k := disjointset.PartitionChain(idx,
		func(i int) float64 { return angles[i] },
		func(i, j int) bool { return math.Abs(angles[i]-angles[j]) < tol },
	)

	clusters := make([]Cluster, k)
	for i := range clusters {
		clusters[i].Order = i
	}
	for i, s := range segs {
		clusters[labels[i]].Members = append(clusters[labels[i]].Members, s)
	}
	for i := range clusters {
		clusters[i].Mean = meanSegment(clusters[i].Members)
	}
	return clusters
}

// Params returns the current clustering parameters.
func (c *AngleClusterer) Params() ClusteringParams { return c.params }

// SetParams updates the clustering parameters.
func (c *AngleClusterer) SetParams(params ClusteringParams) { c.params = params }

func meanSegment(members []Segment) Segment {
	if len(members) == 0 {
		return Segment{}
	}
	var x1, y1, x2, y2 int
	for _, s := range members {
		x1 += s.X1
		y1 += s.Y1
		x2 += s.X2
		y2 += s.Y2
	}
	n := float64(len(members))
	return Segment{
		X1: int(math.Round(float64(x1) / n)),
		Y1: int(math.Round(float64(y1) / n)),
		X2: int(math.Round(float64(x2) / n)),
		Y2: int(math.Round(float64(y2) / n)),
	}
}

// Verify at compile time that *AngleClusterer implements Clusterer.
var _ Clusterer = (*AngleClusterer)(nil)
