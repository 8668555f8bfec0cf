package chart

// CurveSegment is one cubic Bezier span between two consecutive samples.
type CurveSegment struct {
	P0, C1, C2, P1 Point
}

// SmoothSegments derives a smoothed curve through three or more points:
// each interior point's tangent is the mean of its two adjacent segment
// slopes (endpoints use their single adjacent slope), and control points
// sit at one sixth of the local x-span along the tangent on either side.
// Fewer than three points return nil; callers draw those straight.
func SmoothSegments(points []Point) []CurveSegment {
	n := len(points)
	if n < 3 {
		return nil
	}

	slopes := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		dx := points[i+1].X - points[i].X
		if dx != 0 {
			slopes[i] = (points[i+1].Y - points[i].Y) / dx
		}
	}

	tangents := make([]float64, n)
	tangents[0] = slopes[0]
	tangents[n-1] = slopes[n-2]
	for i := 1; i < n-1; i++ {
		tangents[i] = (slopes[i-1] + slopes[i]) / 2
	}

	segments := make([]CurveSegment, n-1)
	for i := 0; i < n-1; i++ {
		dx := (points[i+1].X - points[i].X) / 6
		segments[i] = CurveSegment{
			P0: points[i],
			C1: Point{X: points[i].X + dx, Y: points[i].Y + tangents[i]*dx},
			C2: Point{X: points[i+1].X - dx, Y: points[i+1].Y - tangents[i+1]*dx},
			P1: points[i+1],
		}
	}
	return segments
}
