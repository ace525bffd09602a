package geom

import "math"

// Cubic is a cubic Bézier segment from P0 to P3 with control points P1, P2.
type Cubic struct {
	P0, P1, P2, P3 Point
}

// At evaluates the curve at t in [0, 1].
func (c Cubic) At(t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t
	return Point{
		X: a*c.P0.X + b*c.P1.X + d*c.P2.X + e*c.P3.X,
		Y: a*c.P0.Y + b*c.P1.Y + d*c.P2.Y + e*c.P3.Y,
	}
}

// Flatten appends points approximating the curve to dst, excluding P0. The
// number of subdivisions grows with the control polygon length so that no
// chord is much longer than tolerance.
func (c Cubic) Flatten(dst []Point, tolerance float64) []Point {
	if tolerance <= 0 {
		tolerance = 0.5
	}
	hull := c.P0.Dist(c.P1) + c.P1.Dist(c.P2) + c.P2.Dist(c.P3)
	n := int(math.Ceil(hull / tolerance))
	n = max(1, min(n, 64))
	for i := 1; i <= n; i++ {
		dst = append(dst, c.At(float64(i)/float64(n)))
	}
	return dst
}
