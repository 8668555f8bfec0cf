package chart

import (
	"fmt"
	"time"
)

// Hover describes the sample under the pointer: a vertical guide line, a
// highlighted marker, and a tooltip label.
type Hover struct {
	Index int
	PX    float64
	PY    float64
	Label string
}

// Renderer draws one complete frame from a computed scene. hover is nil
// when the pointer is outside the surface.
type Renderer interface {
	Render(scene Scene, hover *Hover) error
}

// Chart is a stateful drawing surface bound to one renderer. Every state
// change (new dataset, pointer movement, resize) recomputes the scene and
// redraws synchronously; no frame ever sees a half-updated dataset.
type Chart struct {
	renderer Renderer
	points   []Point
	opts     Options
	scene    Scene
	hover    *Hover
}

// New binds a chart to its renderer.
func New(renderer Renderer, opts Options) *Chart {
	return &Chart{renderer: renderer, opts: opts.withDefaults()}
}

// Update replaces the dataset and options, rebuilds the scene, and
// redraws.
func (c *Chart) Update(points []Point, opts Options) error {
	c.points = make([]Point, len(points))
	copy(c.points, points)
	c.opts = opts.withDefaults()
	c.hover = nil
	return c.redraw()
}

// Resize redraws the current dataset at new pixel dimensions. Nothing is
// cached across sizes; the full scene is rebuilt.
func (c *Chart) Resize(width, height int) error {
	c.opts.Width = width
	c.opts.Height = height
	return c.redraw()
}

// PointerMove hit-tests the pointer's x pixel against the samples and
// redraws with a guide line, highlighted marker, and tooltip at the
// nearest one.
func (c *Chart) PointerMove(px float64) error {
	if len(c.points) == 0 {
		return nil
	}

	pixelXs := make([]float64, len(c.scene.Pixels))
	for i, p := range c.scene.Pixels {
		pixelXs[i] = p.X
	}
	idx := NearestIndex(pixelXs, px)
	if idx < 0 {
		return nil
	}

	c.hover = &Hover{
		Index: idx,
		PX:    c.scene.Pixels[idx].X,
		PY:    c.scene.Pixels[idx].Y,
		Label: c.tooltipLabel(idx),
	}
	return c.renderer.Render(c.scene, c.hover)
}

// PointerLeave hides the guide and tooltip.
func (c *Chart) PointerLeave() error {
	c.hover = nil
	return c.renderer.Render(c.scene, nil)
}

// Scene exposes the current computed geometry.
func (c *Chart) Scene() Scene { return c.scene }

// Hover exposes the current hover state, nil when the pointer is outside.
func (c *Chart) Hover() *Hover { return c.hover }

func (c *Chart) redraw() error {
	c.scene = BuildScene(c.points, c.opts)
	return c.renderer.Render(c.scene, c.hover)
}

func (c *Chart) tooltipLabel(idx int) string {
	p := c.points[idx]
	switch c.opts.Mode {
	case ModeCount:
		return fmt.Sprintf("#%d  %s", idx+1, formatValue(p.Y))
	default:
		t := time.UnixMilli(int64(p.X))
		return fmt.Sprintf("%s  %s", t.Format("2006-01-02 15:04"), formatValue(p.Y))
	}
}
