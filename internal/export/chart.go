package export

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"rps-kmc/internal/sims/rps"
)

// ErrTooFewSamples is returned when a chart is rendered with fewer than two
// samples.
var ErrTooFewSamples = errors.New("export: need at least two samples to chart")

// PopulationChart records the fraction of sites held by each value over time
// and renders it as a line chart.
type PopulationChart struct {
	Width  int
	Height int
	// Path is where Finish saves the chart. Empty disables saving.
	Path string

	times     []float64
	fractions [4][]float64
}

// NewPopulationChart returns an empty chart with the given pixel size.
func NewPopulationChart(width, height int) *PopulationChart {
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 400
	}
	return &PopulationChart{Width: width, Height: height}
}

// Record appends one sample taken from s.
func (c *PopulationChart) Record(s Snapshot) {
	counts := s.Counts()
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return
	}
	c.times = append(c.times, s.Time())
	for i, n := range counts {
		c.fractions[i] = append(c.fractions[i], float64(n)/float64(total))
	}
}

// Frame implements run.Sink.
func (c *PopulationChart) Frame(_ int, s Snapshot) error {
	c.Record(s)
	return nil
}

// Finish records the final state and saves the chart to Path.
func (c *PopulationChart) Finish(s Snapshot) error {
	c.Record(s)
	if c.Path == "" {
		return nil
	}
	return c.Save(c.Path)
}

// Len reports the number of recorded samples.
func (c *PopulationChart) Len() int { return len(c.times) }

// Render draws the chart as a PNG image.
func (c *PopulationChart) Render(w io.Writer) error {
	if len(c.times) < 2 {
		return ErrTooFewSamples
	}
	series := make([]chart.Series, 0, 4)
	for _, s := range []rps.Species{rps.KindA, rps.KindB, rps.KindC, rps.Empty} {
		col := rps.Color(s)
		if s == rps.Empty {
			col.R, col.G, col.B = 128, 128, 128
		}
		series = append(series, chart.ContinuousSeries{
			Name:    s.String(),
			XValues: c.times,
			YValues: c.fractions[s],
			Style: chart.Style{
				StrokeColor: drawing.Color{R: col.R, G: col.G, B: col.B, A: 255},
				StrokeWidth: 2,
			},
		})
	}

	graph := chart.Chart{
		Width:  c.Width,
		Height: c.Height,
		XAxis: chart.XAxis{
			Name:  "t",
			Style: chart.Style{FontSize: 10},
		},
		YAxis: chart.YAxis{
			Name:  "fraction",
			Style: chart.Style{FontSize: 10},
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("export: render chart: %w", err)
	}
	return nil
}

// Save renders the chart to path.
func (c *PopulationChart) Save(path string) error {
	if len(c.times) < 2 {
		return ErrTooFewSamples
	}
	return saveWith(path, func(f *os.File) error { return c.Render(f) })
}
