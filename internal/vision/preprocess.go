// Package vision adapts OpenCV (via gocv) to the lane core: it turns colour
// frames into edge masks, extracts line segments, and draws lane overlays.
package vision

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/banshee-data/lanekeeper/internal/config"
)

// Preprocessor turns a BGR frame into a binary edge mask that keeps only
// edges near lane-coloured pixels.
type Preprocessor struct {
	lower, upper gocv.Scalar
	binary       float32
	blurKernel   int
	morphKernel  int
	cannyLow     float32
	cannyHigh    float32
}

// NewPreprocessor creates a Preprocessor from a validated configuration.
func NewPreprocessor(cfg *config.DetectorConfig) *Preprocessor {
	lo, hi := cfg.GetMinThreshold(), cfg.GetMaxThreshold()
	return &Preprocessor{
		lower:       gocv.NewScalar(float64(lo[0]), float64(lo[1]), float64(lo[2]), 0),
		upper:       gocv.NewScalar(float64(hi[0]), float64(hi[1]), float64(hi[2]), 0),
		binary:      float32(*cfg.BinaryThreshold),
		blurKernel:  cfg.GetBlurKernel(),
		morphKernel: cfg.GetMorphKernel(),
		cannyLow:    float32(cfg.GetCannyLow()),
		cannyHigh:   float32(cfg.GetCannyHigh()),
	}
}

// Process writes the edge mask for src into dst.
//
// Steps: median blur; HSV range threshold ANDed with a gray-level binary
// threshold; elliptical dilation of that mask; Canny on the gray image; copy
// of the Canny edges through the dilated mask.
func (p *Preprocessor) Process(src gocv.Mat, dst *gocv.Mat) {
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.MedianBlur(src, &blurred, p.blurKernel)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(blurred, &gray, gocv.ColorBGRToGray)

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(blurred, &hsv, gocv.ColorBGRToHSV)

	colourMask := gocv.NewMat()
	defer colourMask.Close()
	gocv.InRangeWithScalar(hsv, p.lower, p.upper, &colourMask)

	brightMask := gocv.NewMat()
	defer brightMask.Close()
	gocv.Threshold(gray, &brightMask, p.binary, 255, gocv.ThresholdBinary)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.BitwiseAnd(colourMask, brightMask, &mask)

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(p.morphKernel, p.morphKernel))
	defer kernel.Close()
	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(mask, &dilated, kernel)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, p.cannyLow, p.cannyHigh)

	out := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), edges.Rows(), edges.Cols(), gocv.MatTypeCV8UC1)
	defer out.Close()
	edges.CopyToWithMask(&out, dilated)
	out.CopyTo(dst)
}
