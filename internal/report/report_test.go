package report

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lanekeeper/internal/config"
	"github.com/banshee-data/lanekeeper/internal/lane"
	"github.com/banshee-data/lanekeeper/internal/runlog"
)

func testSamples() []Sample {
	return []Sample{
		{Frame: 1, Angle: 10, Branch: "both", Elapsed: 1 * time.Millisecond},
		{Frame: 2, Angle: -10, Branch: "left", Damped: true, Elapsed: 2 * time.Millisecond},
		{Frame: 3, Angle: 0, Branch: "none", Elapsed: 3 * time.Millisecond},
		{Frame: 4, Angle: 20, Branch: "both", Elapsed: 4 * time.Millisecond},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(testSamples())

	assert.Equal(t, 4, s.Frames)
	assert.Equal(t, 3, s.Detected())
	assert.Equal(t, 1, s.Damped)
	assert.Equal(t, map[string]int{"both": 2, "left": 1, "none": 1}, s.Branches)
	assert.InDelta(t, 5.0, s.MeanAngle, 1e-9)
	assert.InDelta(t, 12.9099, s.StdDevAngle, 1e-3)
	assert.Equal(t, 20.0, s.MaxAbsAngle)
	assert.Equal(t, 2500*time.Microsecond, s.MeanLatency)
	assert.Equal(t, 4*time.Millisecond, s.P95Latency)
	assert.Contains(t, s.String(), "frames=4 detected=3 damped=1")
}

func TestSummarize_EdgeCases(t *testing.T) {
	empty := Summarize(nil)
	assert.Equal(t, 0, empty.Frames)
	assert.Equal(t, 0, empty.Detected())
	assert.NotNil(t, empty.Branches)

	one := Summarize([]Sample{{Frame: 1, Angle: -7, Branch: "right"}})
	assert.Equal(t, -7.0, one.MeanAngle)
	assert.Equal(t, 0.0, one.StdDevAngle)
	assert.Equal(t, 7.0, one.MaxAbsAngle)
}

func TestSampleOf(t *testing.T) {
	res := lane.FrameResult{
		Frame:    9,
		Steering: lane.SteeringEstimate{Angle: 3.5, Branch: lane.BranchRightOnly, Damped: true},
		Elapsed:  time.Millisecond,
	}
	assert.Equal(t, Sample{Frame: 9, Angle: 3.5, Branch: "right", Damped: true, Elapsed: time.Millisecond}, SampleOf(res))
}

func TestSavePlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steering.png")
	require.NoError(t, SavePlot(testSamples(), "test run", path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	err = SavePlot(nil, "empty", filepath.Join(t.TempDir(), "empty.png"))
	assert.True(t, errors.Is(err, ErrNoSamples))
}

func TestRecorder_KeepsMostRecent(t *testing.T) {
	r := NewRecorder(3)
	for i := 1; i <= 5; i++ {
		r.Add(lane.FrameResult{Frame: uint64(i)})
	}
	got := r.Samples()
	require.Len(t, got, 3)
	assert.Equal(t, []uint64{3, 4, 5}, []uint64{got[0].Frame, got[1].Frame, got[2].Frame})

	// Returned slice is a copy.
	got[0].Frame = 100
	assert.Equal(t, uint64(3), r.Samples()[0].Frame)
}

func TestRenderChart(t *testing.T) {
	page, err := RenderChart(testSamples(), "Steering", "sub")
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "Steering")
	assert.Contains(t, html, "echarts")
}

func TestChartHandler(t *testing.T) {
	rec := NewRecorder(10)
	rec.Add(lane.FrameResult{Frame: 1, Steering: lane.SteeringEstimate{Angle: 4, Branch: lane.BranchBoth}})
	h := ChartHandler("Live steering", func(*http.Request) ([]Sample, error) { return rec.Samples(), nil })

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/steering", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, w.Body.String(), "frames=1 detected=1")

	failing := ChartHandler("x", func(*http.Request) ([]Sample, error) { return nil, errors.New("nope") })
	w = httptest.NewRecorder()
	failing.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunLoader(t *testing.T) {
	store, err := runlog.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	load := RunLoader(store)
	_, err = load(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Error(t, err)

	run, err := store.StartRun("replay", config.DefaultDetectorConfig(), time.Now())
	require.NoError(t, err)
	require.NoError(t, store.RecordFrame(run.ID, lane.FrameResult{Frame: 1, Steering: lane.SteeringEstimate{Angle: 2, Branch: lane.BranchBoth}}))
	require.NoError(t, store.RecordFrame(run.ID, lane.FrameResult{Frame: 2}))

	samples, err := load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 2.0, samples[0].Angle)
	assert.Equal(t, "none", samples[1].Branch)

	samples, err = load(httptest.NewRequest(http.MethodGet, "/?run="+run.ID, nil))
	require.NoError(t, err)
	assert.Len(t, samples, 2)
}
