package chart

import "math"

// NearestIndex returns the index of the pixel x coordinate closest to px.
// Linear scan; ties resolve to the first candidate found. Returns -1 for
// an empty slice.
func NearestIndex(pixelXs []float64, px float64) int {
	best := -1
	bestDist := math.Inf(1)
	for i, x := range pixelXs {
		d := math.Abs(x - px)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
