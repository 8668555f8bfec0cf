package chart

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNiceStep(t *testing.T) {
	cases := []struct {
		span  float64
		count int
		want  float64
	}{
		{10, 5, 2},    // raw 2 -> 2x10^0
		{100, 5, 20},  // raw 20 -> 2x10^1
		{7, 5, 1},     // raw 1.4, frac < 1.5 -> 1x10^0
		{5, 5, 1},     // raw 1 -> 1
		{8, 5, 2},     // raw 1.6 -> 2
		{25, 5, 5},    // raw 5, frac < 7 -> 5
		{40, 5, 10},   // raw 8 -> 10x10^0
		{0.5, 5, 0.1}, // raw 0.1 -> 1x10^-1
		{1.2, 5, 0.2}, // raw 0.24, frac 2.4 -> 2x10^-1
	}

	for _, c := range cases {
		got := NiceStep(c.span, c.count)
		if !almostEqual(got, c.want) {
			t.Errorf("NiceStep(%v, %d) = %v, expected %v", c.span, c.count, got, c.want)
		}
	}

	if got := NiceStep(0, 5); got != 1 {
		t.Errorf("NiceStep over an empty span should fall back to 1, got %v", got)
	}
}

func TestNiceTicks(t *testing.T) {
	ticks := NiceTicks(0, 100, 5)
	want := []float64{0, 20, 40, 60, 80, 100}
	if len(ticks) != len(want) {
		t.Fatalf("NiceTicks(0, 100, 5) = %v, expected %v", ticks, want)
	}
	for i := range want {
		if !almostEqual(ticks[i], want[i]) {
			t.Errorf("Tick %d: got %v, expected %v", i, ticks[i], want[i])
		}
	}

	// First tick is the first step multiple at or above min.
	ticks = NiceTicks(13, 97, 5)
	if len(ticks) == 0 || !almostEqual(ticks[0], 20) {
		t.Errorf("NiceTicks(13, 97, 5) should start at 20, got %v", ticks)
	}
	if last := ticks[len(ticks)-1]; last > 97 {
		t.Errorf("Last tick %v exceeds max 97", last)
	}
}

func TestPaddedRange(t *testing.T) {
	// Flat series: 10% of the magnitude on each side.
	d := PaddedRange(50, 50)
	if !almostEqual(d.Min, 45) || !almostEqual(d.Max, 55) {
		t.Errorf("PaddedRange(50, 50) = %+v, expected [45, 55]", d)
	}

	// Flat at zero: minimum pad of one unit.
	d = PaddedRange(0, 0)
	if !almostEqual(d.Min, -1) || !almostEqual(d.Max, 1) {
		t.Errorf("PaddedRange(0, 0) = %+v, expected [-1, 1]", d)
	}

	// Real range: 10% pad, rounded outward to integers.
	d = PaddedRange(10, 20)
	if !almostEqual(d.Min, 9) || !almostEqual(d.Max, 21) {
		t.Errorf("PaddedRange(10, 20) = %+v, expected [9, 21]", d)
	}
}

func TestNewLayoutDomains(t *testing.T) {
	opts := Options{Width: 600, Height: 200}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// No data, no override: degenerate one-millisecond domain at now.
	l := NewLayout(nil, opts, now)
	if !almostEqual(l.XDom.Min, float64(now.UnixMilli())) || !almostEqual(l.XDom.Span(), 1) {
		t.Errorf("Empty layout x domain = %+v, expected 1ms at now", l.XDom)
	}

	// Explicit override wins over the data's own extent.
	points := []Point{{X: 100, Y: 5}, {X: 200, Y: 10}}
	override := &Domain{Min: 0, Max: 1000}
	l = NewLayout(points, Options{Width: 600, Height: 200, XDomain: override}, now)
	if !almostEqual(l.XDom.Min, 0) || !almostEqual(l.XDom.Max, 1000) {
		t.Errorf("Override layout x domain = %+v, expected [0, 1000]", l.XDom)
	}

	// Without an override the data's min/max drive the domain.
	l = NewLayout(points, opts, now)
	if !almostEqual(l.XDom.Min, 100) || !almostEqual(l.XDom.Max, 200) {
		t.Errorf("Data layout x domain = %+v, expected [100, 200]", l.XDom)
	}
}

func TestLayoutMapping(t *testing.T) {
	opts := Options{Width: 600, Height: 200}
	points := []Point{{X: 0, Y: 0}, {X: 100, Y: 10}}
	l := NewLayout(points, opts, time.Now())

	// Domain endpoints map to the plot edges.
	if !almostEqual(l.MapX(0), l.PlotX0) || !almostEqual(l.MapX(100), l.PlotX1) {
		t.Errorf("MapX endpoints: got %v and %v, expected %v and %v",
			l.MapX(0), l.MapX(100), l.PlotX0, l.PlotX1)
	}

	// Larger y values map to smaller pixel y (upward on screen).
	if l.MapY(10) >= l.MapY(0) {
		t.Errorf("MapY should invert: MapY(10)=%v, MapY(0)=%v", l.MapY(10), l.MapY(0))
	}
}

func TestSmoothSegments(t *testing.T) {
	if segs := SmoothSegments([]Point{{0, 0}, {1, 1}}); segs != nil {
		t.Errorf("Two points should not produce a smoothed curve, got %v", segs)
	}

	points := []Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}}
	segs := SmoothSegments(points)
	if len(segs) != 2 {
		t.Fatalf("Expected 2 segments for 3 points, got %d", len(segs))
	}

	// Slopes are 1 and -1, so the interior tangent is 0 and the endpoints
	// take their single adjacent slope.
	s0 := segs[0]
	if !almostEqual(s0.C1.X, 1.0/6) || !almostEqual(s0.C1.Y, 1.0/6) {
		t.Errorf("First control point = %+v, expected (1/6, 1/6)", s0.C1)
	}
	if !almostEqual(s0.C2.X, 1-1.0/6) || !almostEqual(s0.C2.Y, 1) {
		t.Errorf("Second control point = %+v, expected (5/6, 1) for a flat interior tangent", s0.C2)
	}

	// Endpoint tangent is the last slope (-1): C2 of the final segment
	// sits one sixth of the span back up that slope.
	s1 := segs[1]
	if !almostEqual(s1.C2.X, 2-1.0/6) || !almostEqual(s1.C2.Y, 1.0/6) {
		t.Errorf("Last control point = %+v, expected (11/6, 1/6)", s1.C2)
	}
}

func TestNearestIndex(t *testing.T) {
	xs := []float64{0, 10, 20}

	if got := NearestIndex(xs, 12); got != 1 {
		t.Errorf("NearestIndex(12) = %d, expected 1", got)
	}
	// Equidistant between 0 and 10: the first found wins.
	if got := NearestIndex(xs, 5); got != 0 {
		t.Errorf("NearestIndex tie should resolve to the first candidate, got %d", got)
	}
	if got := NearestIndex(nil, 5); got != -1 {
		t.Errorf("NearestIndex over no samples should be -1, got %d", got)
	}
}

func TestTimeLabelSpanSwitch(t *testing.T) {
	instant := time.Date(2024, 6, 1, 15, 4, 0, 0, time.UTC)
	ms := float64(instant.UnixMilli())

	dayMs := 24 * float64(time.Hour/time.Millisecond)

	short := TimeLabel(ms, dayMs)
	if !strings.Contains(short, "15:04") {
		t.Errorf("Short-span label should include the clock time, got %q", short)
	}

	long := TimeLabel(ms, 3*dayMs)
	if long != "2024-06-01" {
		t.Errorf("Long-span label should be the date only, got %q", long)
	}
}

func TestBuildSceneMarkers(t *testing.T) {
	sparse := make([]Point, MarkerLimit)
	for i := range sparse {
		sparse[i] = Point{X: float64(i), Y: float64(i % 5)}
	}
	if scene := BuildScene(sparse, Options{Mode: ModeCount}); !scene.ShowMarkers {
		t.Errorf("A %d-point dataset should show markers", len(sparse))
	}

	dense := make([]Point, MarkerLimit+1)
	for i := range dense {
		dense[i] = Point{X: float64(i), Y: float64(i % 5)}
	}
	if scene := BuildScene(dense, Options{Mode: ModeCount}); scene.ShowMarkers {
		t.Errorf("A %d-point dataset should render curve-only", len(dense))
	}
}

type recordingRenderer struct {
	frames int
	scene  Scene
	hover  *Hover
}

func (r *recordingRenderer) Render(scene Scene, hover *Hover) error {
	r.frames++
	r.scene = scene
	r.hover = hover
	return nil
}

func TestChartHoverLifecycle(t *testing.T) {
	rec := &recordingRenderer{}
	c := New(rec, Options{Width: 600, Height: 200, Mode: ModeCount})

	points := []Point{{X: 1, Y: 1400}, {X: 2, Y: 1450}, {X: 3, Y: 1500}}
	if err := c.Update(points, Options{Width: 600, Height: 200, Mode: ModeCount}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if rec.frames != 1 {
		t.Fatalf("Update should redraw once, got %d frames", rec.frames)
	}

	// Pointer near the second sample.
	target := c.Scene().Pixels[1].X + 1
	if err := c.PointerMove(target); err != nil {
		t.Fatalf("PointerMove failed: %v", err)
	}
	hover := c.Hover()
	if hover == nil || hover.Index != 1 {
		t.Fatalf("Expected hover on sample 1, got %+v", hover)
	}
	if hover.Label != "#2  1450" {
		t.Errorf("Count-mode tooltip = %q, expected ordinal and value", hover.Label)
	}

	if err := c.PointerLeave(); err != nil {
		t.Fatalf("PointerLeave failed: %v", err)
	}
	if c.Hover() != nil {
		t.Errorf("Hover should clear on pointer leave")
	}
	if rec.hover != nil {
		t.Errorf("Renderer should have drawn the last frame without a hover")
	}
}

func TestChartTimeModeTooltip(t *testing.T) {
	rec := &recordingRenderer{}
	c := New(rec, Options{})

	instant := time.Date(2024, 6, 1, 15, 4, 0, 0, time.Local)
	points := []Point{
		{X: float64(instant.UnixMilli()), Y: 1500},
		{X: float64(instant.Add(time.Hour).UnixMilli()), Y: 1520},
	}
	if err := c.Update(points, Options{Mode: ModeTime}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := c.PointerMove(c.Scene().Pixels[0].X); err != nil {
		t.Fatalf("PointerMove failed: %v", err)
	}

	hover := c.Hover()
	if hover == nil {
		t.Fatal("Expected a hover")
	}
	if !strings.Contains(hover.Label, "2024-06-01 15:04") || !strings.Contains(hover.Label, "1500") {
		t.Errorf("Time-mode tooltip = %q, expected date+time and value", hover.Label)
	}
}

func TestChartResizeRebuildsScene(t *testing.T) {
	rec := &recordingRenderer{}
	c := New(rec, Options{})

	points := []Point{{X: 0, Y: 0}, {X: 10, Y: 10}}
	if err := c.Update(points, Options{Width: 600, Height: 200}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	before := c.Scene().Layout.PlotX1

	if err := c.Resize(900, 300); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	after := c.Scene().Layout.PlotX1
	if before == after {
		t.Errorf("Resize should remap the plot area, PlotX1 stayed %v", before)
	}
	if rec.frames != 2 {
		t.Errorf("Expected a redraw per state change, got %d frames", rec.frames)
	}
}

func TestSVGRendererOutput(t *testing.T) {
	var buf bytes.Buffer
	c := New(&SVGRenderer{Target: &buf}, Options{})

	points := []Point{{X: 1, Y: 1400}, {X: 2, Y: 1450}, {X: 3, Y: 1500}}
	if err := c.Update(points, Options{Mode: ModeCount, Fill: "#1a2033"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<svg") || !strings.Contains(out, "</svg>") {
		t.Errorf("Renderer should emit a complete SVG document")
	}
	// Three points smooth into Bezier segments.
	if !strings.Contains(out, " C") {
		t.Errorf("Expected cubic path commands in output")
	}

	buf.Reset()
	if err := c.Update(nil, Options{}); err != nil {
		t.Fatalf("Update with no data failed: %v", err)
	}
	if !strings.Contains(buf.String(), "no data") {
		t.Errorf("Empty dataset should render the placeholder text")
	}
}
