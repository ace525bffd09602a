// Package stroke computes the presentation of freehand pen strokes: the
// speed-dependent width while drawing and the smoothed curve through the raw
// points.
package stroke

import "github.com/sketchify/sketchify/backend-go/internal/geom"

const (
	// SpeedWindow is how many recent inter-sample distances are averaged.
	SpeedWindow = 5

	// MaxSpeed is the average speed, in logical units per sample, at which a
	// stroke reaches its minimum width.
	MaxSpeed = 10.0

	// MinWidthRatio is the minimum width as a fraction of the brush size.
	MinWidthRatio = 0.5
)

// DynamicWidth maps an average pointer speed to a stroke width: faster motion
// draws a thinner line, within [MinWidthRatio*brush, brush].
func DynamicWidth(avgSpeed, brush float64) float64 {
	maxWidth := brush
	minWidth := brush * MinWidthRatio
	w := maxWidth - (avgSpeed/MaxSpeed)*(maxWidth-minWidth)
	return max(minWidth, min(maxWidth, w))
}

// SpeedTracker keeps a sliding window of the distances between consecutive
// pointer samples. The zero value is ready to use.
type SpeedTracker struct {
	last    geom.Point
	hasLast bool
	window  [SpeedWindow]float64
	n       int
	next    int
}

// Begin resets the window and records the first sample of a gesture.
func (t *SpeedTracker) Begin(p geom.Point) {
	*t = SpeedTracker{last: p, hasLast: true}
}

// Push records a new sample and returns the average speed over the window.
// The first sample after Begin or Reset only sets the reference point.
func (t *SpeedTracker) Push(p geom.Point) float64 {
	if !t.hasLast {
		t.last, t.hasLast = p, true
		return t.Average()
	}
	t.window[t.next] = t.last.Dist(p)
	t.next = (t.next + 1) % SpeedWindow
	t.n = min(t.n+1, SpeedWindow)
	t.last = p
	return t.Average()
}

// Average returns the mean speed of the samples in the window, or 0 if none.
func (t *SpeedTracker) Average() float64 {
	if t.n == 0 {
		return 0
	}
	var sum float64
	for i := range t.n {
		sum += t.window[i]
	}
	return sum / float64(t.n)
}

// Reset forgets all samples.
func (t *SpeedTracker) Reset() {
	*t = SpeedTracker{}
}
