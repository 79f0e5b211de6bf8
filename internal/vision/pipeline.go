package vision

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/banshee-data/lanekeeper/internal/lane"
)

// Pipeline runs the full per-frame path: resize to the working resolution,
// preprocess, extract segments, run the lane core, and draw the overlay.
type Pipeline struct {
	det   *lane.Detector
	pre   *Preprocessor
	hough *HoughExtractor
}

// NewPipeline wires a Pipeline around det using det's configuration.
func NewPipeline(det *lane.Detector) *Pipeline {
	return &Pipeline{
		det:   det,
		pre:   NewPreprocessor(det.Config()),
		hough: NewHoughExtractor(det.Config()),
	}
}

// Detector returns the wrapped detector.
func (p *Pipeline) Detector() *lane.Detector { return p.det }

// Update processes one colour frame. dst receives the resized working frame
// with the detected lanes and steering target drawn on it.
func (p *Pipeline) Update(src gocv.Mat, dst *gocv.Mat) lane.FrameResult {
	working := gocv.NewMat()
	defer working.Close()
	gocv.Resize(src, &working, image.Pt(p.det.Width(), p.det.Height()), 0, 0, gocv.InterpolationLinear)

	edges := gocv.NewMat()
	defer edges.Close()
	p.pre.Process(working, &edges)

	res := p.det.ProcessSegments(p.hough.Extract(edges))

	DrawLanes(&working, res.Lanes, p.det.Height())
	if res.Steering.Branch != lane.BranchNone {
		DrawTarget(&working, res.Steering.Target)
	}
	working.CopyTo(dst)
	return res
}
