package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullJSON = `{
  "min_threshold": [0, 0, 200],
  "max_threshold": [179, 30, 255],
  "binary_threshold": 150,
  "sky_line": 100,
  "lane_width": 160,
  "width": 400,
  "height": 480
}`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestLoadDetectorConfig(t *testing.T) {
	cfg, err := LoadDetectorConfig(writeConfig(t, "detector.json", fullJSON))
	require.NoError(t, err)

	assert.Equal(t, [3]int{0, 0, 200}, cfg.GetMinThreshold())
	assert.Equal(t, [3]int{179, 30, 255}, cfg.GetMaxThreshold())
	assert.Equal(t, 150, *cfg.BinaryThreshold)
	assert.Equal(t, 100, *cfg.SkyLine)
	assert.Equal(t, 160, *cfg.LaneWidth)
	assert.Equal(t, 400, *cfg.Width)
	assert.Equal(t, 480, *cfg.Height)

	// Optional fields fall back to defaults.
	x, y := cfg.GetCarPosition()
	assert.Equal(t, 200, x)
	assert.Equal(t, 480, y)
	assert.Equal(t, 10.0, cfg.GetSegmentWeight())
	assert.Equal(t, 5.0, cfg.GetClusterAngleTolerance())
	assert.Equal(t, 30.0, cfg.GetHysteresisPixels())
	assert.Equal(t, 35, cfg.GetHoughThreshold())
	assert.Equal(t, 10.0, cfg.GetHoughMinLineLength())
	assert.Equal(t, 3.0, cfg.GetHoughMaxLineGap())
}

func TestLoadDetectorConfigOptionalOverrides(t *testing.T) {
	content := strings.TrimSuffix(strings.TrimSpace(fullJSON), "}") + `,
  "car_position": [190, 470],
  "segment_weight": 0,
  "cluster_angle_tolerance": 2.5,
  "hysteresis_pixels": 12,
  "blur_kernel": 3,
  "hough_threshold": 20
}`
	cfg, err := LoadDetectorConfig(writeConfig(t, "detector.json", content))
	require.NoError(t, err)

	x, y := cfg.GetCarPosition()
	assert.Equal(t, 190, x)
	assert.Equal(t, 470, y)
	assert.Equal(t, 0.0, cfg.GetSegmentWeight())
	assert.Equal(t, 2.5, cfg.GetClusterAngleTolerance())
	assert.Equal(t, 12.0, cfg.GetHysteresisPixels())
	assert.Equal(t, 3, cfg.GetBlurKernel())
	assert.Equal(t, 5, cfg.GetMorphKernel())
	assert.Equal(t, 20, cfg.GetHoughThreshold())
}

func TestLoadDetectorConfigMissing(t *testing.T) {
	_, err := LoadDetectorConfig("/nonexistent/path/to/config.json")
	assert.Error(t, err, "open failure must not yield a partially initialised config")
}

func TestLoadDetectorConfigBadExtension(t *testing.T) {
	_, err := LoadDetectorConfig(writeConfig(t, "detector.yaml", fullJSON))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".json extension")
}

func TestLoadDetectorConfigInvalidJSON(t *testing.T) {
	_, err := LoadDetectorConfig(writeConfig(t, "invalid.json", `{"width": "wide"`))
	assert.Error(t, err)
}

func TestLoadDetectorConfigMissingRequiredField(t *testing.T) {
	fields := []string{"min_threshold", "max_threshold", "binary_threshold", "sky_line", "lane_width", "width", "height"}
	for _, field := range fields {
		field := field
		t.Run(field, func(t *testing.T) {
			var lines []string
			for _, line := range strings.Split(fullJSON, "\n") {
				if strings.Contains(line, `"`+field+`"`) {
					continue
				}
				lines = append(lines, line)
			}
			content := strings.Join(lines, "\n")
			// Removing the last field leaves a trailing comma.
			content = strings.Replace(content, ",\n}", "\n}", 1)

			_, err := LoadDetectorConfig(writeConfig(t, "detector.json", content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingField), "got %v", err)
			assert.Contains(t, err.Error(), field)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *DetectorConfig {
		return NewDetectorConfig([3]int{0, 0, 200}, [3]int{179, 30, 255}, 150, 100, 160, 400, 480)
	}
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		mutate  func(c *DetectorConfig)
		wantErr string
	}{
		{"valid", func(c *DetectorConfig) {}, ""},
		{"short threshold", func(c *DetectorConfig) { c.MinThreshold = []int{1, 2} }, "3 elements"},
		{"threshold out of range", func(c *DetectorConfig) { c.MaxThreshold = []int{0, 0, 256} }, "between 0 and 255"},
		{"zero width", func(c *DetectorConfig) { c.Width = ptrInt(0) }, "frame size"},
		{"negative height", func(c *DetectorConfig) { c.Height = ptrInt(-1) }, "frame size"},
		{"sky line at height", func(c *DetectorConfig) { c.SkyLine = ptrInt(480) }, "sky_line"},
		{"negative sky line", func(c *DetectorConfig) { c.SkyLine = ptrInt(-1) }, "sky_line"},
		{"zero lane width", func(c *DetectorConfig) { c.LaneWidth = ptrInt(0) }, "lane_width"},
		{"binary threshold", func(c *DetectorConfig) { c.BinaryThreshold = ptrInt(300) }, "binary_threshold"},
		{"car position arity", func(c *DetectorConfig) { c.CarPosition = []int{1} }, "car_position"},
		{"car position outside", func(c *DetectorConfig) { c.CarPosition = []int{500, 10} }, "outside"},
		{"car position bottom edge", func(c *DetectorConfig) { c.CarPosition = []int{200, 480} }, ""},
		{"negative weight", func(c *DetectorConfig) { c.SegmentWeight = f(-1) }, "segment_weight"},
		{"zero tolerance", func(c *DetectorConfig) { c.ClusterAngleTolerance = f(0) }, "cluster_angle_tolerance"},
		{"negative hysteresis", func(c *DetectorConfig) { c.HysteresisPixels = f(-3) }, "hysteresis_pixels"},
		{"even blur", func(c *DetectorConfig) { c.BlurKernel = ptrInt(4) }, "blur_kernel"},
		{"zero morph", func(c *DetectorConfig) { c.MorphKernel = ptrInt(0) }, "morph_kernel"},
		{"hough threshold", func(c *DetectorConfig) { c.HoughThreshold = ptrInt(0) }, "hough_threshold"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultDetectorConfigMatchesDefaultsFile(t *testing.T) {
	builtin := DefaultDetectorConfig()
	require.NoError(t, builtin.Validate())

	file := MustLoadDefaultConfig()
	assert.Equal(t, builtin.GetMinThreshold(), file.GetMinThreshold())
	assert.Equal(t, builtin.GetMaxThreshold(), file.GetMaxThreshold())
	assert.Equal(t, *builtin.BinaryThreshold, *file.BinaryThreshold)
	assert.Equal(t, *builtin.SkyLine, *file.SkyLine)
	assert.Equal(t, *builtin.LaneWidth, *file.LaneWidth)
	assert.Equal(t, *builtin.Width, *file.Width)
	assert.Equal(t, *builtin.Height, *file.Height)
	assert.Equal(t, builtin.GetSegmentWeight(), file.GetSegmentWeight())
	assert.Equal(t, builtin.GetClusterAngleTolerance(), file.GetClusterAngleTolerance())
	assert.Equal(t, builtin.GetHoughThreshold(), file.GetHoughThreshold())
}
