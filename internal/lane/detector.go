package lane

import (
	"fmt"
	"time"

	"github.com/banshee-data/lanekeeper/internal/config"
	"github.com/banshee-data/lanekeeper/internal/timeutil"
)

// FrameResult summarises one processed frame.
type FrameResult struct {
	Frame            uint64 // 1-based frame counter
	RawSegments      int
	WeightedSegments int
	Clusters         int
	Lanes            Lanes
	Steering         SteeringEstimate
	Elapsed          time.Duration
}

// Detector estimates lanes and steering error frame by frame.
//
// A Detector owns its tracker state and is not safe for concurrent use; run
// one Detector per camera stream.
type Detector struct {
	cfg       *config.DetectorConfig
	geom      Geometry
	weight    float64
	clusterer Clusterer
	clock     timeutil.Clock
	log       *Logger

	state  TrackerState
	last   FrameResult
	frames uint64
}

// Option configures a Detector.
type Option func(*Detector)

// WithClusterer replaces the default AngleClusterer.
func WithClusterer(c Clusterer) Option {
	return func(d *Detector) { d.clusterer = c }
}

// WithClock sets the clock used to time frames.
func WithClock(c timeutil.Clock) Option {
	return func(d *Detector) { d.clock = c }
}

// WithLogger routes the detector's log streams to l instead of the package
// defaults set by SetLogWriters.
func WithLogger(l *Logger) Option {
	return func(d *Detector) { d.log = l }
}

// NewDetector validates cfg and creates a Detector with empty tracker state.
func NewDetector(cfg *config.DetectorConfig, opts ...Option) (*Detector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil detector config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	d := &Detector{
		cfg:       cfg,
		geom:      GeometryFromConfig(cfg),
		weight:    cfg.GetSegmentWeight(),
		clusterer: NewAngleClusterer(cfg.GetClusterAngleTolerance()),
		clock:     timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(d)
	}

	d.logger().Opsf("detector created: %dx%d sky_line=%d lane_width=%d car=(%.0f,%.0f) tolerance=%.1f weight=%.1f",
		d.geom.Width, d.geom.Height, d.geom.SkyLine, d.geom.LaneWidth,
		d.geom.Car.X, d.geom.Car.Y, d.clusterer.Params().AngleTolerance, d.weight)
	return d, nil
}

// NewDetectorFromFile loads a JSON configuration and creates a Detector.
func NewDetectorFromFile(path string, opts ...Option) (*Detector, error) {
	cfg, err := config.LoadDetectorConfig(path)
	if err != nil {
		Opsf("failed to load %s: %v", path, err)
		return nil, err
	}
	return NewDetector(cfg, opts...)
}

// ProcessSegments runs one frame through filtering, clustering, lane
// selection and steering estimation, then advances the tracker state.
func (d *Detector) ProcessSegments(segs []Segment) FrameResult {
	start := d.clock.Now()
	d.frames++

	weighted := FilterAndWeight(segs, d.weight, d.geom)
	clusters := d.clusterer.Cluster(weighted)
	lg := d.logger()
	d.state.SetLanes(selectLanes(clusters, d.geom, lg))
	steering := estimateSteering(&d.state, d.geom, lg)

	d.last = FrameResult{
		Frame:            d.frames,
		RawSegments:      len(segs),
		WeightedSegments: len(weighted),
		Clusters:         len(clusters),
		Lanes:            d.state.Lanes(),
		Steering:         steering,
		Elapsed:          d.clock.Since(start),
	}
	lg.Tracef("frame %d: segments=%d weighted=%d clusters=%d left=%v right=%v branch=%v angle=%.2f",
		d.last.Frame, len(segs), len(weighted), len(clusters),
		d.state.Left, d.state.Right, steering.Branch, steering.Angle)
	return d.last
}

func (d *Detector) logger() *Logger {
	if d.log != nil {
		return d.log
	}
	return defaultLogger()
}

// SteeringError returns the steering-error angle in degrees for the most
// recently processed frame, or 0 before any frame.
func (d *Detector) SteeringError() float64 {
	return d.last.Steering.Angle
}

// Last returns the result of the most recently processed frame.
func (d *Detector) Last() FrameResult { return d.last }

// Lanes returns the current lane estimate.
func (d *Detector) Lanes() Lanes { return d.state.Lanes() }

// State returns a copy of the tracker state.
func (d *Detector) State() TrackerState { return d.state }

// Reset clears the tracker state and frame counter.
func (d *Detector) Reset() {
	d.state.Reset()
	d.last = FrameResult{}
	d.frames = 0
}

// Config returns the detector configuration.
func (d *Detector) Config() *config.DetectorConfig { return d.cfg }

// Geometry returns the frame geometry.
func (d *Detector) Geometry() Geometry { return d.geom }

// Width returns the working frame width.
func (d *Detector) Width() int { return d.geom.Width }

// Height returns the working frame height.
func (d *Detector) Height() int { return d.geom.Height }
