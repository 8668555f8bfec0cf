// Package chart turns irregular numeric or time series into drawable line
// chart geometry. All computation here is pure and surface-independent;
// drawing happens in a thin Renderer adapter consuming a computed Scene.
package chart

import (
	"math"
	"time"
)

// Point is one data sample. In time mode X is milliseconds since the Unix
// epoch; in count mode it is the sample's ordinal.
type Point struct {
	X float64
	Y float64
}

// XAxisMode selects how x values are labelled.
type XAxisMode int

const (
	ModeTime XAxisMode = iota
	ModeCount
)

// Domain is a closed numeric interval.
type Domain struct {
	Min float64
	Max float64
}

// Span returns the width of the domain.
func (d Domain) Span() float64 { return d.Max - d.Min }

// Options configure one chart surface.
type Options struct {
	Width   int
	Height  int
	Padding float64
	// LeftGutter is extra inset on the left edge for y-axis labels.
	LeftGutter float64

	Stroke string
	Grid   string
	Axis   string
	// Fill, when non-empty, shades the area under the curve.
	Fill string

	// XDomain, when set, clamps the x axis to a fixed window (for example
	// a project's configured period) regardless of where the data falls.
	XDomain *Domain
	Mode    XAxisMode
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 600
	}
	if o.Height <= 0 {
		o.Height = 200
	}
	if o.Padding <= 0 {
		o.Padding = 24
	}
	if o.LeftGutter <= 0 {
		o.LeftGutter = 28
	}
	if o.Stroke == "" {
		o.Stroke = "#7aa2f7"
	}
	if o.Grid == "" {
		o.Grid = "#273048"
	}
	if o.Axis == "" {
		o.Axis = "#99a0b0"
	}
	return o
}

// Layout is the computed coordinate mapping of one chart: the plot
// rectangle in pixel space and the data domains it represents.
type Layout struct {
	PlotX0, PlotY0 float64 // top-left of the plot area
	PlotX1, PlotY1 float64 // bottom-right of the plot area
	XDom, YDom     Domain
}

// PaddedRange widens a raw y extent so the curve never touches the plot
// edge: equal values pad by 10% of the magnitude (at least one unit), a
// real range pads by 10% and rounds outward to integers.
func PaddedRange(min, max float64) Domain {
	if min == max {
		pad := math.Max(math.Abs(min)*0.1, 1)
		return Domain{Min: min - pad, Max: max + pad}
	}
	pad := (max - min) * 0.1
	return Domain{Min: math.Floor(min - pad), Max: math.Ceil(max + pad)}
}

// NewLayout computes the coordinate mapping for points under opts. now
// anchors the degenerate fallback domain used when there is no data and no
// domain override.
func NewLayout(points []Point, opts Options, now time.Time) Layout {
	opts = opts.withDefaults()

	l := Layout{
		PlotX0: opts.Padding + opts.LeftGutter,
		PlotY0: opts.Padding,
		PlotX1: float64(opts.Width) - opts.Padding,
		PlotY1: float64(opts.Height) - opts.Padding,
	}

	switch {
	case opts.XDomain != nil:
		l.XDom = *opts.XDomain
	case len(points) > 0:
		l.XDom = Domain{Min: points[0].X, Max: points[0].X}
		for _, p := range points[1:] {
			l.XDom.Min = math.Min(l.XDom.Min, p.X)
			l.XDom.Max = math.Max(l.XDom.Max, p.X)
		}
	default:
		ms := float64(now.UnixMilli())
		l.XDom = Domain{Min: ms, Max: ms + 1}
	}
	if l.XDom.Span() <= 0 {
		l.XDom.Max = l.XDom.Min + 1
	}

	if len(points) > 0 {
		minY, maxY := points[0].Y, points[0].Y
		for _, p := range points[1:] {
			minY = math.Min(minY, p.Y)
			maxY = math.Max(maxY, p.Y)
		}
		l.YDom = PaddedRange(minY, maxY)
	} else {
		l.YDom = Domain{Min: 0, Max: 1}
	}

	return l
}

// MapX maps a data x value to a pixel x coordinate.
func (l Layout) MapX(v float64) float64 {
	return l.PlotX0 + (l.PlotX1-l.PlotX0)*(v-l.XDom.Min)/l.XDom.Span()
}

// MapY maps a data y value to a pixel y coordinate (pixel y grows
// downward).
func (l Layout) MapY(v float64) float64 {
	return l.PlotY1 - (l.PlotY1-l.PlotY0)*(v-l.YDom.Min)/l.YDom.Span()
}
