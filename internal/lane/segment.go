package lane

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateGeometry is returned when an x-intercept is requested from a
// horizontal line.
var ErrDegenerateGeometry = errors.New("degenerate geometry: horizontal line has no x-intercept")

// ErrNoLine is returned when geometry is requested from an absent Line.
var ErrNoLine = errors.New("no lane line")

// Segment is a straight line segment in image coordinates (y grows down).
type Segment struct {
	X1, Y1, X2, Y2 int
}

// Length returns the euclidean length of the segment.
func (s Segment) Length() float64 {
	return math.Hypot(float64(s.X2-s.X1), float64(s.Y2-s.Y1))
}

// Angle returns the orientation in degrees measured from the image vertical:
// a vertical segment has angle 0 and the sign flips across vertical. The
// value depends on endpoint order; callers compare raw angles.
func (s Segment) Angle() float64 {
	return math.Atan2(float64(s.X2-s.X1), float64(s.Y2-s.Y1)) * 180 / math.Pi
}

// XAtY returns the x coordinate where the segment's supporting line crosses
// row y.
func (s Segment) XAtY(y float64) (float64, error) {
	if s.Y1 == s.Y2 {
		return 0, ErrDegenerateGeometry
	}
	return (y-float64(s.Y1))*float64(s.X1-s.X2)/float64(s.Y1-s.Y2) + float64(s.X1), nil
}

func (s Segment) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", s.X1, s.Y1, s.X2, s.Y2)
}

// Point is an image-plane position. Coordinates are fractional because lane
// intercepts are interpolated.
type Point struct {
	X, Y float64
}

// Line is an optional lane boundary: either a representative Segment or
// nothing. The zero value is NoLine, so a detected zero-length segment at the
// origin is still distinguishable from "no lane".
type Line struct {
	seg Segment
	ok  bool
}

// NoLine is the absent lane.
var NoLine = Line{}

// LineOf wraps a detected segment.
func LineOf(s Segment) Line {
	return Line{seg: s, ok: true}
}

// Present reports whether a lane was detected.
func (l Line) Present() bool { return l.ok }

// Segment returns the underlying segment and whether the line is present.
func (l Line) Segment() (Segment, bool) { return l.seg, l.ok }

// XAtY returns the line's x-intercept at row y, ErrNoLine when absent or
// ErrDegenerateGeometry when horizontal.
func (l Line) XAtY(y float64) (float64, error) {
	if !l.ok {
		return 0, ErrNoLine
	}
	return l.seg.XAtY(y)
}

func (l Line) String() string {
	if !l.ok {
		return "none"
	}
	return l.seg.String()
}
