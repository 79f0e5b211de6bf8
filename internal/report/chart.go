package report

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/lanekeeper/internal/lane"
	"github.com/banshee-data/lanekeeper/internal/runlog"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// Recorder keeps the most recent samples of a live run for charting.
// It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	limit   int
	samples []Sample
}

// NewRecorder returns a Recorder holding at most capacity samples.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = 1
	}
	return &Recorder{limit: capacity, samples: make([]Sample, 0, capacity)}
}

// Add appends a frame result, evicting the oldest sample when full.
func (r *Recorder) Add(res lane.FrameResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.samples) == r.limit {
		copy(r.samples, r.samples[1:])
		r.samples = r.samples[:r.limit-1]
	}
	r.samples = append(r.samples, SampleOf(res))
}

// Samples returns a copy of the retained samples, oldest first.
func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.samples...)
}

// RenderChart writes an HTML line chart of steering angle per frame.
func RenderChart(samples []Sample, title, subtitle string) ([]byte, error) {
	x := make([]uint64, len(samples))
	y := make([]opts.LineData, len(samples))
	for i, s := range samples {
		x[i] = s.Frame
		y[i] = opts.LineData{Value: s.Angle}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Steering (deg)", NameLocation: "middle", NameGap: 35}),
	)
	line.SetXAxis(x).AddSeries("angle", y)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ChartHandler serves a chart of the samples returned by load.
func ChartHandler(title string, load func(r *http.Request) ([]Sample, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		samples, err := load(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sum := Summarize(samples)
		subtitle := fmt.Sprintf("frames=%d detected=%d mean=%.2f stddev=%.2f", sum.Frames, sum.Detected(), sum.MeanAngle, sum.StdDevAngle)
		page, err := RenderChart(samples, title, subtitle)
		if err != nil {
			http.Error(w, fmt.Sprintf("render error: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})
}

// RunLoader loads samples for the run named by the "run" query parameter,
// or the most recent run when it is absent.
func RunLoader(store *runlog.Store) func(r *http.Request) ([]Sample, error) {
	return func(r *http.Request) ([]Sample, error) {
		id := r.URL.Query().Get("run")
		if id == "" {
			runs, err := store.ListRuns(1)
			if err != nil {
				return nil, err
			}
			if len(runs) == 0 {
				return nil, fmt.Errorf("no recorded runs")
			}
			id = runs[0].ID
		}
		recs, err := store.Frames(id)
		if err != nil {
			return nil, err
		}
		return SamplesFromRecords(recs), nil
	}
}
