// Package render draws the comparison metrics as bar charts.
package render

import (
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/model"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Artifact names of the rendered charts. Each chart is saved as <name>.png.
const (
	// ThroughputChart compares per-algorithm throughput in Mbps.
	ThroughputChart = "throughput"
	// DelayChart compares per-algorithm mean end-to-end delay.
	DelayChart = "delay"
	// FairnessChart shows the Jain fairness index of the run.
	FairnessChart = "fairness"
)

var (
	white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	black = color.RGBA{A: 0xff}
)

// BarRenderer writes one PNG bar chart per metric into an output directory.
type BarRenderer struct {
	outDir  string
	width   vg.Length
	height  vg.Length
	palette []color.RGBA
}

// NewBarRenderer creates a renderer from the render configuration.
func NewBarRenderer(cfg config.RenderConfig) (*BarRenderer, error) {
	palette, err := cfg.Colors()
	if err != nil {
		return nil, fmt.Errorf("invalid palette: %w", err)
	}
	if len(palette) == 0 {
		return nil, fmt.Errorf("palette must contain at least one color")
	}
	if cfg.WidthInch <= 0 || cfg.HeightInch <= 0 {
		return nil, fmt.Errorf("chart size must be positive, got %vx%v inches", cfg.WidthInch, cfg.HeightInch)
	}
	return &BarRenderer{
		outDir:  cfg.OutputDir,
		width:   vg.Length(cfg.WidthInch) * vg.Inch,
		height:  vg.Length(cfg.HeightInch) * vg.Inch,
		palette: palette,
	}, nil
}

// chartSpec describes one of the three comparison charts.
type chartSpec struct {
	name      string
	title     string
	yLabel    string
	format    string
	textColor color.Color
	values    []float64
}

// Render draws the throughput, delay and fairness charts. The fairness index
// belongs to the whole run; its chart repeats it once per algorithm.
func (r *BarRenderer) Render(metrics []model.AlgorithmMetrics, fairness model.FairnessResult) ([]model.Artifact, error) {
	if len(metrics) == 0 {
		return nil, fmt.Errorf("no metrics to render")
	}
	if err := os.MkdirAll(r.outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	labels := make([]string, len(metrics))
	throughputs := make([]float64, len(metrics))
	delays := make([]float64, len(metrics))
	fairnessBars := make([]float64, len(metrics))
	for i, m := range metrics {
		labels[i] = m.Label
		throughputs[i] = m.ThroughputMbps
		delays[i] = m.MeanDelaySeconds
		fairnessBars[i] = fairness.Index
	}

	specs := []chartSpec{
		{
			name:      ThroughputChart,
			title:     "TCP Congestion Control Comparison - Throughput",
			yLabel:    "Throughput (Mbps)",
			format:    "%.2f",
			textColor: white,
			values:    throughputs,
		},
		{
			name:      DelayChart,
			title:     "TCP Congestion Control Comparison - Delay",
			yLabel:    "End-to-End Delay (seconds)",
			format:    "%.4f",
			textColor: black,
			values:    delays,
		},
		{
			name:      FairnessChart,
			title:     "Jain Fairness Index (Throughput-Based)",
			yLabel:    "Fairness Score",
			format:    "%.4f",
			textColor: black,
			values:    fairnessBars,
		},
	}

	artifacts := make([]model.Artifact, 0, len(specs))
	for _, spec := range specs {
		path := filepath.Join(r.outDir, spec.name+".png")
		p, err := r.barPlot(spec, labels)
		if err != nil {
			return artifacts, fmt.Errorf("failed to build %s chart: %w", spec.name, err)
		}
		if err := p.Save(r.width, r.height, path); err != nil {
			return artifacts, fmt.Errorf("failed to save %s chart to '%s': %w", spec.name, path, err)
		}
		artifacts = append(artifacts, model.Artifact{Name: spec.name, Path: path})
	}
	return artifacts, nil
}

// barPlot builds a plot with one colored bar per algorithm and the value printed
// in the middle of each bar.
func (r *BarRenderer) barPlot(spec chartSpec, labels []string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = spec.title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Y.Label.Text = spec.yLabel
	p.Y.Label.TextStyle.Font.Size = vg.Points(14)
	p.Y.Min = 0
	p.Add(plotter.NewGrid())

	ticks := make([]plot.Tick, len(labels))
	points := make(plotter.XYs, len(labels))
	texts := make([]string, len(labels))
	for i, v := range spec.values {
		bar, err := plotter.NewBarChart(plotter.Values{v}, vg.Points(55))
		if err != nil {
			return nil, err
		}
		bar.XMin = float64(i)
		bar.Color = r.colorAt(i)
		bar.LineStyle.Width = 0
		p.Add(bar)

		ticks[i] = plot.Tick{Value: float64(i), Label: labels[i]}
		points[i] = plotter.XY{X: float64(i), Y: v / 2}
		texts[i] = fmt.Sprintf(spec.format, v)
	}

	values, err := plotter.NewLabels(plotter.XYLabels{XYs: points, Labels: texts})
	if err != nil {
		return nil, err
	}
	for i := range values.TextStyle {
		values.TextStyle[i].Color = spec.textColor
		values.TextStyle[i].Font.Size = vg.Points(12)
		values.TextStyle[i].XAlign = draw.XCenter
		values.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(values)

	// Fixed x range keeps single bars centered on their tick.
	p.X.Min = -0.5
	p.X.Max = float64(len(labels)) - 0.5
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	return p, nil
}

// colorAt cycles through the palette.
func (r *BarRenderer) colorAt(i int) color.RGBA {
	return r.palette[i%len(r.palette)]
}
