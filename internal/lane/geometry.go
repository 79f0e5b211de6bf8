package lane

import "github.com/banshee-data/lanekeeper/internal/config"

// Geometry is the frame geometry shared by the per-frame stages. It is
// derived once from a validated DetectorConfig and never mutated.
type Geometry struct {
	Width      int
	Height     int
	SkyLine    int
	LaneWidth  int
	Car        Point   // vehicle reference point, origin of the bearing angle
	Hysteresis float64 // pixels; larger target jumps are damped
}

// GeometryFromConfig extracts the frame geometry from a validated config.
func GeometryFromConfig(cfg *config.DetectorConfig) Geometry {
	carX, carY := cfg.GetCarPosition()
	return Geometry{
		Width:      *cfg.Width,
		Height:     *cfg.Height,
		SkyLine:    *cfg.SkyLine,
		LaneWidth:  *cfg.LaneWidth,
		Car:        Point{X: float64(carX), Y: float64(carY)},
		Hysteresis: cfg.GetHysteresisPixels(),
	}
}

// midRow is the row at which the steering target is placed.
func (g Geometry) midRow() float64 { return float64(g.Height) / 2 }

// nearRow is the first row of the bottom third of the frame.
func (g Geometry) nearRow() int { return g.Height / 3 * 2 }
