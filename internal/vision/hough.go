package vision

import (
	"math"

	"gocv.io/x/gocv"

	"github.com/banshee-data/lanekeeper/internal/config"
	"github.com/banshee-data/lanekeeper/internal/lane"
)

// HoughExtractor finds straight segments in an edge mask with the
// probabilistic Hough transform.
type HoughExtractor struct {
	Rho           float32 // distance resolution in pixels
	Theta         float32 // angle resolution in radians
	Threshold     int     // accumulator votes
	MinLineLength float32
	MaxLineGap    float32
}

// NewHoughExtractor creates a HoughExtractor from a validated configuration.
func NewHoughExtractor(cfg *config.DetectorConfig) *HoughExtractor {
	return &HoughExtractor{
		Rho:           float32(cfg.GetHoughRho()),
		Theta:         float32(cfg.GetHoughThetaDeg() * math.Pi / 180),
		Threshold:     cfg.GetHoughThreshold(),
		MinLineLength: float32(cfg.GetHoughMinLineLength()),
		MaxLineGap:    float32(cfg.GetHoughMaxLineGap()),
	}
}

// Extract returns the segments found in edges.
func (h *HoughExtractor) Extract(edges gocv.Mat) []lane.Segment {
	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(edges, &lines, h.Rho, h.Theta, h.Threshold, h.MinLineLength, h.MaxLineGap)

	segs := make([]lane.Segment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		segs = append(segs, lane.Segment{X1: int(v[0]), Y1: int(v[1]), X2: int(v[2]), Y2: int(v[3])})
	}
	return segs
}
