package chart

import (
	"math"
	"time"
)

// twoDaysMs is the span threshold below which time labels include the
// clock time.
const twoDaysMs = 2 * 24 * float64(time.Hour/time.Millisecond)

// NiceStep snaps span/count up to the nearest "nice" step of the form
// {1, 2, 5, 10} x 10^k.
func NiceStep(span float64, count int) float64 {
	if span <= 0 || count <= 0 {
		return 1
	}
	raw := span / float64(count)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	frac := raw / mag

	var nice float64
	switch {
	case frac < 1.5:
		nice = 1
	case frac < 3:
		nice = 2
	case frac < 7:
		nice = 5
	default:
		nice = 10
	}
	return nice * mag
}

// NiceTicks returns tick values at every nice step from the first multiple
// at or above min, up to max.
func NiceTicks(min, max float64, count int) []float64 {
	step := NiceStep(max-min, count)
	var ticks []float64
	for v := math.Ceil(min/step) * step; v <= max+step*1e-9; v += step {
		ticks = append(ticks, v)
	}
	return ticks
}

// TimeTicks returns count evenly spaced instants across [min, max]. Time
// axes use a fixed count instead of nice-number snapping.
func TimeTicks(min, max float64, count int) []float64 {
	if count < 2 || max <= min {
		return []float64{min}
	}
	step := (max - min) / float64(count-1)
	ticks := make([]float64, count)
	for i := range ticks {
		ticks[i] = min + step*float64(i)
	}
	return ticks
}

// TimeLabel formats an instant for an x tick: day and clock time while the
// visible span is at most two days, the date alone otherwise.
func TimeLabel(ms, spanMs float64) string {
	t := time.UnixMilli(int64(ms))
	if spanMs <= twoDaysMs {
		return t.Format("01/02 15:04")
	}
	return t.Format("2006-01-02")
}
