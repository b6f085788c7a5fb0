package web

import (
	"math"
	"strconv"

	"github.com/godilite/perf-dashboard/internal/performance"
	"github.com/godilite/perf-dashboard/internal/service"
)

// chartConfig holds SVG layout in pixels.
type chartConfig struct {
	Width        int
	Height       int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
	TickCount    int
}

func defaultChartConfig() chartConfig {
	return chartConfig{
		Width:        560,
		Height:       360,
		MarginTop:    24,
		MarginRight:  16,
		MarginBottom: 48,
		MarginLeft:   52,
		TickCount:    5,
	}
}

func (c chartConfig) plotArea() (x, y, w, h float64) {
	return float64(c.MarginLeft), float64(c.MarginTop),
		float64(c.Width - c.MarginLeft - c.MarginRight),
		float64(c.Height - c.MarginTop - c.MarginBottom)
}

var barFills = map[performance.Color]string{
	performance.ColorGreen:  "green",
	performance.ColorOrange: "orange",
	performance.ColorRed:    "red",
	performance.ColorGrey:   "grey",
}

type chartBar struct {
	Name    string
	Label   string
	Tooltip string
	Fill    string
	X       float64
	Y       float64
	W       float64
	H       float64
	CX      float64
	BaseY   float64
}

type chartTick struct {
	Y     float64
	Label string
}

type barChart struct {
	Title     string
	Dimension string
	Width     int
	Height    int
	PlotX     float64
	PlotY     float64
	PlotW     float64
	PlotH     float64
	PlotR     float64
	PlotB     float64
	AxisMax   float64
	Bars      []chartBar
	Ticks     []chartTick
}

// newBarChart lays out one bar per group with height proportional to its
// performance on a [0, max+10] axis. Undefined performance is drawn at 0.
func newBarChart(title string, by service.GroupBy, groups []service.Aggregate, cfg chartConfig) barChart {
	px, py, pw, ph := cfg.plotArea()
	dimension := dimensionTitle(by)

	var maxPerf float64
	for _, g := range groups {
		if g.Performance.Defined && g.Performance.Percent > maxPerf {
			maxPerf = g.Performance.Percent
		}
	}
	axisMax := maxPerf + 10

	chart := barChart{
		Title:     title,
		Dimension: dimension,
		Width:     cfg.Width,
		Height:    cfg.Height,
		PlotX:     px,
		PlotY:     py,
		PlotW:     pw,
		PlotH:     ph,
		PlotR:     px + pw,
		PlotB:     py + ph,
		AxisMax:   axisMax,
	}

	toY := func(v float64) float64 {
		return py + ph - v/axisMax*ph
	}

	for _, t := range ticks(axisMax, cfg.TickCount) {
		chart.Ticks = append(chart.Ticks, chartTick{
			Y:     round1(toY(t)),
			Label: strconv.FormatFloat(t, 'f', -1, 64) + "%",
		})
	}

	if len(groups) == 0 {
		return chart
	}

	slot := pw / float64(len(groups))
	width := slot * 0.6
	for i, g := range groups {
		v := 0.0
		if g.Performance.Defined {
			v = math.Max(g.Performance.Percent, 0)
		}
		top := toY(v)
		cx := px + slot*float64(i) + slot/2
		name := g.Key(by)
		chart.Bars = append(chart.Bars, chartBar{
			Name:    name,
			Label:   g.Label,
			Tooltip: tooltip(dimension, name, g),
			Fill:    barFills[g.Color],
			X:       round1(cx - width/2),
			Y:       round1(top),
			W:       round1(width),
			H:       round1(py + ph - top),
			CX:      round1(cx),
			BaseY:   py + ph,
		})
	}
	return chart
}

func dimensionTitle(by service.GroupBy) string {
	switch by {
	case service.GroupByDivision:
		return "Division"
	case service.GroupByStakeholder:
		return "Stakeholder"
	default:
		return "Division / Stakeholder"
	}
}

func tooltip(dimension, name string, g service.Aggregate) string {
	perf := "n/a"
	if g.Performance.Defined {
		perf = strconv.FormatFloat(g.Performance.Rounded(), 'f', 1, 64) + "%"
	}
	return dimension + ": " + name +
		"\nPerf: " + perf +
		"\nTarget: " + strconv.FormatInt(g.Target, 10) +
		"\nActual: " + strconv.FormatInt(g.Actual, 10)
}

// ticks returns round values from 0 up to max, about count steps apart.
func ticks(max float64, count int) []float64 {
	if max <= 0 || count < 1 {
		return []float64{0}
	}
	step := niceStep(max / float64(count))
	var out []float64
	for t := 0.0; t <= max+1e-9; t += step {
		out = append(out, math.Round(t*1e6)/1e6)
	}
	return out
}

func niceStep(raw float64) float64 {
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if m*mag >= raw {
			return m * mag
		}
	}
	return 10 * mag
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
