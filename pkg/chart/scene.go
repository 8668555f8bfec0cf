package chart

import (
	"strconv"
	"time"
)

// MarkerLimit is the largest dataset that still gets per-sample markers;
// denser series render curve-only for legibility.
const MarkerLimit = 40

// tickTarget is the tick count the axes aim for.
const tickTarget = 5

// Tick is one axis tick, positioned in pixel space.
type Tick struct {
	Pos   float64
	Label string
}

// Scene is the complete, surface-independent description of one chart
// frame. A Renderer consumes it without recomputing any geometry.
type Scene struct {
	Opts   Options
	Layout Layout

	// Pixels holds the mapped sample coordinates, parallel to the input
	// points; hit-testing runs against Pixels[i].X.
	Pixels []Point

	XTicks []Tick
	YTicks []Tick

	// Curve is the smoothed path for 3+ samples; nil means draw Pixels as
	// a straight polyline.
	Curve []CurveSegment

	ShowMarkers bool
	Empty       bool
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// BuildScene maps a dataset onto pixel space under opts.
func BuildScene(points []Point, opts Options) Scene {
	opts = opts.withDefaults()
	layout := NewLayout(points, opts, time.Now())

	scene := Scene{
		Opts:   opts,
		Layout: layout,
		Empty:  len(points) == 0,
	}
	if scene.Empty {
		return scene
	}

	scene.Pixels = make([]Point, len(points))
	for i, p := range points {
		scene.Pixels[i] = Point{X: layout.MapX(p.X), Y: layout.MapY(p.Y)}
	}

	for _, v := range NiceTicks(layout.YDom.Min, layout.YDom.Max, tickTarget) {
		scene.YTicks = append(scene.YTicks, Tick{Pos: layout.MapY(v), Label: formatValue(v)})
	}

	switch opts.Mode {
	case ModeTime:
		span := layout.XDom.Span()
		for _, v := range TimeTicks(layout.XDom.Min, layout.XDom.Max, tickTarget) {
			scene.XTicks = append(scene.XTicks, Tick{Pos: layout.MapX(v), Label: TimeLabel(v, span)})
		}
	case ModeCount:
		for _, v := range NiceTicks(layout.XDom.Min, layout.XDom.Max, tickTarget) {
			scene.XTicks = append(scene.XTicks, Tick{Pos: layout.MapX(v), Label: formatValue(v)})
		}
	}

	scene.Curve = SmoothSegments(scene.Pixels)
	scene.ShowMarkers = len(points) <= MarkerLimit
	return scene
}
