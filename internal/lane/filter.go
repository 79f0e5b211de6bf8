package lane

import "math"

const (
	// MinLaneAngle is the smallest |Angle()| accepted as a lane boundary.
	MinLaneAngle = 15.0

	// NearBonus is the number of extra copies given to a segment that
	// reaches into the bottom third of the frame.
	NearBonus = 10
)

// FilterAndWeight drops segments that cannot be lane boundaries and
// replicates the rest so that long segments, and segments close to the
// vehicle, dominate the clustering vote.
//
// A segment is dropped when |angle| < MinLaneAngle or when either endpoint
// lies above the sky line. A kept segment is emitted ceil(length/weight)
// times, plus NearBonus when an endpoint is in the bottom third. With a
// weight of 0 or less every kept segment is emitted once.
func FilterAndWeight(segs []Segment, weight float64, g Geometry) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		if !keepSegment(s, g) {
			continue
		}
		n := Replication(s, weight, g)
		for i := 0; i < n; i++ {
			out = append(out, s)
		}
	}
	return out
}

func keepSegment(s Segment, g Geometry) bool {
	if math.Abs(s.Angle()) < MinLaneAngle {
		return false
	}
	return s.Y1 >= g.SkyLine && s.Y2 >= g.SkyLine
}

// Replication returns how many copies FilterAndWeight emits for a segment
// that passed the filter.
func Replication(s Segment, weight float64, g Geometry) int {
	if weight <= 0 {
		return 1
	}
	n := int(math.Ceil(s.Length() / weight))
	near := g.nearRow()
	if s.Y1 > near || s.Y2 > near {
		n += NearBonus
	}
	return n
}
