package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical detector defaults file.
const DefaultConfigPath = "config/detector.defaults.json"

// ErrMissingField is returned when a required configuration field is absent.
var ErrMissingField = errors.New("missing required field")

// DetectorConfig is the per-camera detector configuration.
//
// The first block of fields is required; a file that omits any of them is
// rejected by Validate. The remaining fields are optional tuning knobs whose
// Get* methods fall back to built-in defaults.
type DetectorConfig struct {
	// Required
	MinThreshold    []int `json:"min_threshold"`    // HSV lower bound
	MaxThreshold    []int `json:"max_threshold"`    // HSV upper bound
	BinaryThreshold *int  `json:"binary_threshold"` // gray gate, 0..255
	SkyLine         *int  `json:"sky_line"`         // rows above this are ignored
	LaneWidth       *int  `json:"lane_width"`       // pixels at working resolution
	Width           *int  `json:"width"`
	Height          *int  `json:"height"`

	// Optional geometry
	CarPosition           []int    `json:"car_position,omitempty"` // [x, y]
	SegmentWeight         *float64 `json:"segment_weight,omitempty"`
	ClusterAngleTolerance *float64 `json:"cluster_angle_tolerance,omitempty"`
	HysteresisPixels      *float64 `json:"hysteresis_pixels,omitempty"`

	// Optional preprocessing / segment extraction
	BlurKernel         *int     `json:"blur_kernel,omitempty"`
	MorphKernel        *int     `json:"morph_kernel,omitempty"`
	CannyLow           *float64 `json:"canny_low,omitempty"`
	CannyHigh          *float64 `json:"canny_high,omitempty"`
	HoughRho           *float64 `json:"hough_rho,omitempty"`
	HoughThetaDeg      *float64 `json:"hough_theta_deg,omitempty"`
	HoughThreshold     *int     `json:"hough_threshold,omitempty"`
	HoughMinLineLength *float64 `json:"hough_min_line_length,omitempty"`
	HoughMaxLineGap    *float64 `json:"hough_max_line_gap,omitempty"`
}

func ptrInt(v int) *int { return &v }

// NewDetectorConfig builds a configuration from explicit numeric values.
// Optional fields are left unset so their defaults apply.
func NewDetectorConfig(minThreshold, maxThreshold [3]int, binaryThreshold, skyLine, laneWidth, width, height int) *DetectorConfig {
	return &DetectorConfig{
		MinThreshold:    minThreshold[:],
		MaxThreshold:    maxThreshold[:],
		BinaryThreshold: ptrInt(binaryThreshold),
		SkyLine:         ptrInt(skyLine),
		LaneWidth:       ptrInt(laneWidth),
		Width:           ptrInt(width),
		Height:          ptrInt(height),
	}
}

// DefaultDetectorConfig returns the built-in configuration for a 320x240
// working frame with white lane markings.
func DefaultDetectorConfig() *DetectorConfig {
	return NewDetectorConfig([3]int{0, 0, 180}, [3]int{179, 40, 255}, 180, 85, 150, 320, 240)
}

// LoadDetectorConfig loads a DetectorConfig from a JSON file and validates it.
// Unlike a partial tuning file, every required field must be present.
func LoadDetectorConfig(path string) (*DetectorConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseDetectorConfig(data)
}

// ParseDetectorConfig decodes and validates a JSON configuration record.
func ParseDetectorConfig(data []byte) (*DetectorConfig, error) {
	cfg := &DetectorConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *DetectorConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadDetectorConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that every required field is present and that all values
// are in range.
func (c *DetectorConfig) Validate() error {
	if err := validateTriple("min_threshold", c.MinThreshold); err != nil {
		return err
	}
	if err := validateTriple("max_threshold", c.MaxThreshold); err != nil {
		return err
	}

	required := []struct {
		name string
		v    *int
	}{
		{"binary_threshold", c.BinaryThreshold},
		{"sky_line", c.SkyLine},
		{"lane_width", c.LaneWidth},
		{"width", c.Width},
		{"height", c.Height},
	}
	for _, r := range required {
		if r.v == nil {
			return fmt.Errorf("%w: %s", ErrMissingField, r.name)
		}
	}

	if *c.Width <= 0 || *c.Height <= 0 {
		return fmt.Errorf("frame size must be positive, got %dx%d", *c.Width, *c.Height)
	}
	if *c.SkyLine < 0 || *c.SkyLine >= *c.Height {
		return fmt.Errorf("sky_line must be in [0, %d), got %d", *c.Height, *c.SkyLine)
	}
	if *c.LaneWidth <= 0 {
		return fmt.Errorf("lane_width must be positive, got %d", *c.LaneWidth)
	}
	if *c.BinaryThreshold < 0 || *c.BinaryThreshold > 255 {
		return fmt.Errorf("binary_threshold must be between 0 and 255, got %d", *c.BinaryThreshold)
	}

	if c.CarPosition != nil {
		if len(c.CarPosition) != 2 {
			return fmt.Errorf("car_position must have 2 elements, got %d", len(c.CarPosition))
		}
		x, y := c.CarPosition[0], c.CarPosition[1]
		if x < 0 || x > *c.Width || y < 0 || y > *c.Height {
			return fmt.Errorf("car_position (%d, %d) outside %dx%d frame", x, y, *c.Width, *c.Height)
		}
	}
	if c.SegmentWeight != nil && *c.SegmentWeight < 0 {
		return fmt.Errorf("segment_weight must be non-negative, got %f", *c.SegmentWeight)
	}
	if c.ClusterAngleTolerance != nil && *c.ClusterAngleTolerance <= 0 {
		return fmt.Errorf("cluster_angle_tolerance must be positive, got %f", *c.ClusterAngleTolerance)
	}
	if c.HysteresisPixels != nil && *c.HysteresisPixels < 0 {
		return fmt.Errorf("hysteresis_pixels must be non-negative, got %f", *c.HysteresisPixels)
	}
	if err := validateKernel("blur_kernel", c.BlurKernel); err != nil {
		return err
	}
	if err := validateKernel("morph_kernel", c.MorphKernel); err != nil {
		return err
	}
	if c.HoughThreshold != nil && *c.HoughThreshold <= 0 {
		return fmt.Errorf("hough_threshold must be positive, got %d", *c.HoughThreshold)
	}

	return nil
}

func validateKernel(name string, k *int) error {
	if k != nil && (*k < 1 || *k%2 == 0) {
		return fmt.Errorf("%s must be a positive odd number, got %d", name, *k)
	}
	return nil
}

func validateTriple(name string, v []int) error {
	if v == nil {
		return fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	if len(v) != 3 {
		return fmt.Errorf("%s must have 3 elements, got %d", name, len(v))
	}
	for i, x := range v {
		if x < 0 || x > 255 {
			return fmt.Errorf("%s[%d] must be between 0 and 255, got %d", name, i, x)
		}
	}
	return nil
}

// GetMinThreshold returns the HSV lower bound. Call only on a validated config.
func (c *DetectorConfig) GetMinThreshold() [3]int {
	return [3]int{c.MinThreshold[0], c.MinThreshold[1], c.MinThreshold[2]}
}

// GetMaxThreshold returns the HSV upper bound. Call only on a validated config.
func (c *DetectorConfig) GetMaxThreshold() [3]int {
	return [3]int{c.MaxThreshold[0], c.MaxThreshold[1], c.MaxThreshold[2]}
}

// GetCarPosition returns the car reference point, defaulting to the centre
// of the bottom row.
func (c *DetectorConfig) GetCarPosition() (x, y int) {
	if c.CarPosition == nil {
		return *c.Width / 2, *c.Height
	}
	return c.CarPosition[0], c.CarPosition[1]
}

// GetSegmentWeight returns the segment_weight value or the default.
func (c *DetectorConfig) GetSegmentWeight() float64 {
	if c.SegmentWeight == nil {
		return 10
	}
	return *c.SegmentWeight
}

// GetClusterAngleTolerance returns the cluster_angle_tolerance value or the default.
func (c *DetectorConfig) GetClusterAngleTolerance() float64 {
	if c.ClusterAngleTolerance == nil {
		return 5
	}
	return *c.ClusterAngleTolerance
}

// GetHysteresisPixels returns the hysteresis_pixels value or the default.
func (c *DetectorConfig) GetHysteresisPixels() float64 {
	if c.HysteresisPixels == nil {
		return 30
	}
	return *c.HysteresisPixels
}

// GetBlurKernel returns the blur_kernel value or the default.
func (c *DetectorConfig) GetBlurKernel() int {
	if c.BlurKernel == nil {
		return 5
	}
	return *c.BlurKernel
}

// GetMorphKernel returns the morph_kernel value or the default.
func (c *DetectorConfig) GetMorphKernel() int {
	if c.MorphKernel == nil {
		return 5
	}
	return *c.MorphKernel
}

// GetCannyLow returns the canny_low value or the default.
func (c *DetectorConfig) GetCannyLow() float64 {
	if c.CannyLow == nil {
		return 50
	}
	return *c.CannyLow
}

// GetCannyHigh returns the canny_high value or the default.
func (c *DetectorConfig) GetCannyHigh() float64 {
	if c.CannyHigh == nil {
		return 150
	}
	return *c.CannyHigh
}

// GetHoughRho returns the hough_rho value or the default.
func (c *DetectorConfig) GetHoughRho() float64 {
	if c.HoughRho == nil {
		return 1
	}
	return *c.HoughRho
}

// GetHoughThetaDeg returns the hough_theta_deg value or the default.
func (c *DetectorConfig) GetHoughThetaDeg() float64 {
	if c.HoughThetaDeg == nil {
		return 1
	}
	return *c.HoughThetaDeg
}

// GetHoughThreshold returns the hough_threshold value or the default.
func (c *DetectorConfig) GetHoughThreshold() int {
	if c.HoughThreshold == nil {
		return 35
	}
	return *c.HoughThreshold
}

// GetHoughMinLineLength returns the hough_min_line_length value or the default.
func (c *DetectorConfig) GetHoughMinLineLength() float64 {
	if c.HoughMinLineLength == nil {
		return 10
	}
	return *c.HoughMinLineLength
}

// GetHoughMaxLineGap returns the hough_max_line_gap value or the default.
func (c *DetectorConfig) GetHoughMaxLineGap() float64 {
	if c.HoughMaxLineGap == nil {
		return 3
	}
	return *c.HoughMaxLineGap
}
