package chart

import (
	"fmt"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo"
)

// SVGRenderer draws scenes as complete SVG documents. Each Render call
// emits one full document to Target, so a redraw loop should hand it a
// fresh or reset writer per frame.
type SVGRenderer struct {
	Target io.Writer
}

func (r *SVGRenderer) Render(scene Scene, hover *Hover) error {
	if r.Target == nil {
		return fmt.Errorf("svg renderer has no target writer")
	}

	opts := scene.Opts
	canvas := svg.New(r.Target)
	canvas.Start(opts.Width, opts.Height)
	defer canvas.End()

	textStyle := fmt.Sprintf("fill:%s;font-size:12px;font-family:sans-serif", opts.Axis)

	if scene.Empty {
		canvas.Text(10, 20, "no data", textStyle)
		return nil
	}

	l := scene.Layout
	gridStyle := fmt.Sprintf("stroke:%s;stroke-width:1", opts.Grid)

	// Horizontal gridlines at the y ticks, labels in the left gutter.
	for _, tick := range scene.YTicks {
		canvas.Line(px(l.PlotX0), px(tick.Pos), px(l.PlotX1), px(tick.Pos), gridStyle)
		canvas.Text(4, px(tick.Pos)+4, tick.Label, textStyle)
	}
	for _, tick := range scene.XTicks {
		canvas.Text(px(tick.Pos), px(l.PlotY1)+16, tick.Label, textStyle+";text-anchor:middle")
	}

	d := pathData(scene)
	if opts.Fill != "" {
		fillD := fmt.Sprintf("%s L%.2f,%.2f L%.2f,%.2f Z",
			d,
			scene.Pixels[len(scene.Pixels)-1].X, l.PlotY1,
			scene.Pixels[0].X, l.PlotY1)
		canvas.Path(fillD, fmt.Sprintf("fill:%s;stroke:none", opts.Fill))
	}
	canvas.Path(d, fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", opts.Stroke))

	if scene.ShowMarkers {
		markerStyle := fmt.Sprintf("fill:%s", opts.Stroke)
		for _, p := range scene.Pixels {
			canvas.Circle(px(p.X), px(p.Y), 3, markerStyle)
		}
	}

	if hover != nil {
		canvas.Line(px(hover.PX), px(l.PlotY0), px(hover.PX), px(l.PlotY1),
			fmt.Sprintf("stroke:%s;stroke-width:1;stroke-dasharray:3,3", opts.Axis))
		canvas.Circle(px(hover.PX), px(hover.PY), 4,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:2", opts.Stroke, opts.Axis))
		canvas.Text(px(hover.PX), px(l.PlotY0)-6, hover.Label, textStyle+";text-anchor:middle")
	}

	return nil
}

func px(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

// pathData builds the SVG path for the mapped samples: cubic Bezier
// segments when a smoothed curve exists, a straight polyline otherwise.
func pathData(scene Scene) string {
	var b strings.Builder
	first := scene.Pixels[0]
	fmt.Fprintf(&b, "M%.2f,%.2f", first.X, first.Y)

	if scene.Curve != nil {
		for _, seg := range scene.Curve {
			fmt.Fprintf(&b, " C%.2f,%.2f %.2f,%.2f %.2f,%.2f",
				seg.C1.X, seg.C1.Y, seg.C2.X, seg.C2.Y, seg.P1.X, seg.P1.Y)
		}
		return b.String()
	}

	for _, p := range scene.Pixels[1:] {
		fmt.Fprintf(&b, " L%.2f,%.2f", p.X, p.Y)
	}
	return b.String()
}
