package report

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNoSamples is returned when there is nothing to plot.
var ErrNoSamples = errors.New("no samples")

// SavePlot writes a steering-angle-per-frame chart to path. The image
// format follows the file extension (.png, .svg, .pdf).
func SavePlot(samples []Sample, title, path string) error {
	if len(samples) == 0 {
		return ErrNoSamples
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Steering error (deg)"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(samples))
	var damped plotter.XYs
	for i, s := range samples {
		pts[i] = plotter.XY{X: float64(s.Frame), Y: s.Angle}
		if s.Damped {
			damped = append(damped, pts[i])
		}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to create angle line: %w", err)
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("angle", line)

	if len(damped) > 0 {
		sc, err := plotter.NewScatter(damped)
		if err != nil {
			return fmt.Errorf("failed to create damped scatter: %w", err)
		}
		sc.GlyphStyle.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
		p.Legend.Add("damped", sc)
	}

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}
