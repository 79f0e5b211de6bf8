package lane

import "math"

// Branch identifies which target-point rule produced a steering estimate.
type Branch int

const (
	BranchNone Branch = iota
	BranchBoth
	BranchRightOnly
	BranchLeftOnly
)

func (b Branch) String() string {
	switch b {
	case BranchBoth:
		return "both"
	case BranchRightOnly:
		return "right"
	case BranchLeftOnly:
		return "left"
	default:
		return "none"
	}
}

// SteeringEstimate is the steering error for one frame.
type SteeringEstimate struct {
	Angle  float64 // degrees; negative steers left, positive right
	Target Point
	Branch Branch
	Damped bool // the target was averaged with the previous anchor
}

// EstimateSteering places a target point from the current lanes and returns
// its bearing from the car. The target sits on the middle row:
//
//   - both lanes: midway between them, averaged with the previous anchor when
//     it moved by at least g.Hysteresis pixels
//   - one lane: half a lane width inside it
//   - no lane: the car itself, so no correction is reported
//
// A lane whose intercept cannot be computed is treated as absent. As a side
// effect the left lane, or else the right lane, becomes the new anchor.
func EstimateSteering(s *TrackerState, g Geometry) SteeringEstimate {
	return estimateSteering(s, g, defaultLogger())
}

func estimateSteering(s *TrackerState, g Geometry, lg *Logger) SteeringEstimate {
	y := g.midRow()

	p1, leftOK := intercept(s.Left, y, "left", lg)
	p2, rightOK := intercept(s.Right, y, "right", lg)

	est := SteeringEstimate{Target: g.Car}
	switch {
	case leftOK && rightOK:
		pr := float64(g.Width) / 2
		if x, ok := intercept(s.Previous, y, "previous", lg); ok {
			pr = x
		}
		mid := (p1 + p2) / 2
		est.Branch = BranchBoth
		est.Target = Point{X: mid, Y: y}
		if math.Abs(mid-pr) >= g.Hysteresis {
			est.Target.X = (mid + pr) / 2
			est.Damped = true
			lg.Diagf("target jump %.1f px damped: mid=%.1f anchor=%.1f", math.Abs(mid-pr), mid, pr)
		}
	case rightOK:
		est.Branch = BranchRightOnly
		est.Target = Point{X: p2 - float64(g.LaneWidth)/2, Y: y}
	case leftOK:
		est.Branch = BranchLeftOnly
		est.Target = Point{X: p1 + float64(g.LaneWidth)/2, Y: y}
	}
	est.Angle = BearingAngle(est.Target, g.Car)

	switch {
	case leftOK:
		s.Previous = s.Left
	case rightOK:
		s.Previous = s.Right
	}
	return est
}

func intercept(l Line, y float64, side string, lg *Logger) (float64, bool) {
	if !l.Present() {
		return 0, false
	}
	x, err := l.XAtY(y)
	if err != nil {
		lg.Diagf("%s lane %v treated as absent: %v", side, l, err)
		return 0, false
	}
	return x, true
}

// BearingAngle returns the signed angle in degrees between straight ahead
// and the direction from car to p. Targets left of the car are negative
// whether the target row is above or below the car. A target level with the
// car reports ±90.
func BearingAngle(p, car Point) float64 {
	if p.X == car.X {
		return 0
	}
	if p.Y == car.Y {
		if p.X < car.X {
			return -90
		}
		return 90
	}
	dx := p.X - car.X
	dy := car.Y - p.Y
	deg := math.Atan(math.Abs(dx)/math.Abs(dy)) * 180 / math.Pi
	if dx < 0 {
		return -deg
	}
	return deg
}
