package lane

import "github.com/banshee-data/lanekeeper/internal/config"

// testGeometry is a 400x480 frame with the car at the bottom centre.
func testGeometry() Geometry {
	return Geometry{
		Width:      400,
		Height:     480,
		SkyLine:    100,
		LaneWidth:  160,
		Car:        Point{X: 200, Y: 480},
		Hysteresis: 30,
	}
}

func testConfig() *config.DetectorConfig {
	return config.NewDetectorConfig([3]int{0, 0, 200}, [3]int{179, 30, 255}, 150, 100, 160, 400, 480)
}

// Lane segments whose x-intercepts at y=240 are 100 and 300 respectively;
// both have |angle| ≈ 22.6°.
var (
	leftLaneSeg  = Segment{100, 240, 0, 480}
	rightLaneSeg = Segment{300, 240, 400, 480}
)
