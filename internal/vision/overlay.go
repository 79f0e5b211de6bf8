package vision

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/banshee-data/lanekeeper/internal/lane"
)

var (
	leftLaneColour  = color.RGBA{R: 255, A: 255}
	rightLaneColour = color.RGBA{G: 255, A: 255}
	targetColour    = color.RGBA{R: 255, G: 255, A: 255}
)

const laneThickness = 2

// DrawLanes draws each present lane from the bottom row up to the middle
// row: left in red, right in green. Lanes without an intercept are skipped.
func DrawLanes(img *gocv.Mat, lanes lane.Lanes, height int) {
	drawLane(img, lanes.Left, height, leftLaneColour)
	drawLane(img, lanes.Right, height, rightLaneColour)
}

func drawLane(img *gocv.Mat, l lane.Line, height int, c color.RGBA) {
	bottom, err := l.XAtY(float64(height))
	if err != nil {
		return
	}
	mid, err := l.XAtY(float64(height / 2))
	if err != nil {
		return
	}
	gocv.Line(img,
		image.Pt(int(math.Round(bottom)), height),
		image.Pt(int(math.Round(mid)), height/2),
		c, laneThickness)
}

// DrawTarget marks the steering target point.
func DrawTarget(img *gocv.Mat, p lane.Point) {
	gocv.Circle(img, image.Pt(int(math.Round(p.X)), int(math.Round(p.Y))), 4, targetColour, laneThickness)
}
