// Package report summarises and charts steering output for a run.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lanekeeper/internal/lane"
	"github.com/banshee-data/lanekeeper/internal/runlog"
)

// Sample is the per-frame data a report needs.
type Sample struct {
	Frame   uint64
	Angle   float64
	Branch  string
	Damped  bool
	Elapsed time.Duration
}

// SampleOf converts a live frame result.
func SampleOf(res lane.FrameResult) Sample {
	return Sample{
		Frame:   res.Frame,
		Angle:   res.Steering.Angle,
		Branch:  res.Steering.Branch.String(),
		Damped:  res.Steering.Damped,
		Elapsed: res.Elapsed,
	}
}

// SamplesFromRecords converts stored run log frames.
func SamplesFromRecords(recs []runlog.FrameRecord) []Sample {
	out := make([]Sample, len(recs))
	for i, r := range recs {
		out[i] = Sample{Frame: r.Frame, Angle: r.Angle, Branch: r.Branch, Damped: r.Damped, Elapsed: r.Elapsed}
	}
	return out
}

// Summary holds aggregate statistics for a run.
type Summary struct {
	Frames      int
	Branches    map[string]int // keyed by lane.Branch.String()
	Damped      int
	MeanAngle   float64
	StdDevAngle float64
	MaxAbsAngle float64
	MeanLatency time.Duration
	P95Latency  time.Duration
}

// Summarize computes a Summary. An empty input yields a zero Summary with
// an empty Branches map.
func Summarize(samples []Sample) Summary {
	s := Summary{Frames: len(samples), Branches: make(map[string]int)}
	if len(samples) == 0 {
		return s
	}

	angles := make([]float64, len(samples))
	abs := make([]float64, len(samples))
	latencies := make([]float64, len(samples))
	for i, smp := range samples {
		angles[i] = smp.Angle
		abs[i] = math.Abs(smp.Angle)
		latencies[i] = float64(smp.Elapsed)
		s.Branches[smp.Branch]++
		if smp.Damped {
			s.Damped++
		}
	}

	s.MeanAngle, s.StdDevAngle = stat.MeanStdDev(angles, nil)
	if len(samples) == 1 {
		s.StdDevAngle = 0
	}
	s.MaxAbsAngle = floats.Max(abs)

	sort.Float64s(latencies)
	s.MeanLatency = time.Duration(stat.Mean(latencies, nil))
	s.P95Latency = time.Duration(stat.Quantile(0.95, stat.Empirical, latencies, nil))
	return s
}

// Detected returns the number of frames with at least one lane.
func (s Summary) Detected() int {
	return s.Frames - s.Branches[lane.BranchNone.String()]
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "frames=%d detected=%d damped=%d\n", s.Frames, s.Detected(), s.Damped)
	fmt.Fprintf(&b, "angle mean=%.2f stddev=%.2f max|a|=%.2f\n", s.MeanAngle, s.StdDevAngle, s.MaxAbsAngle)
	fmt.Fprintf(&b, "latency mean=%s p95=%s\n", s.MeanLatency, s.P95Latency)

	keys := make([]string, 0, len(s.Branches))
	for k := range s.Branches {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %-6s %d\n", k, s.Branches[k])
	}
	return b.String()
}
