package stroke

import "github.com/sketchify/sketchify/backend-go/internal/geom"

// DefaultTension is the curve tension used when rendering pen strokes.
const DefaultTension = 0.3

// Segments converts flattened x,y pairs into cubic Bézier segments that pass
// through every raw point. Control points follow a distance-weighted
// Catmull-Rom construction, so the tangent at each interior point is shared by
// the segments on either side of it. Fewer than two points yield no segments.
func Segments(points []float64, tension float64) []geom.Cubic {
	n := len(points) / 2
	if n < 2 {
		return nil
	}
	at := func(i int) geom.Point {
		return geom.Point{X: points[2*i], Y: points[2*i+1]}
	}

	out := make([]geom.Cubic, 0, n-1)
	for k := 0; k < n-1; k++ {
		p1, p2 := at(k), at(k+1)
		p0 := p1
		if k > 0 {
			p0 = at(k - 1)
		}
		p3 := p2
		if k < n-2 {
			p3 = at(k + 2)
		}

		d1 := p0.Dist(p1)
		d2 := p1.Dist(p2)
		d3 := p2.Dist(p3)

		c1, c2 := p1, p2
		if d1+d2 > 0 {
			c1 = p1.Add(p2.Sub(p0).Mul(tension * d2 / (d1 + d2)))
		}
		if d2+d3 > 0 {
			c2 = p2.Sub(p3.Sub(p1).Mul(tension * d2 / (d2 + d3)))
		}
		out = append(out, geom.Cubic{P0: p1, P1: c1, P2: c2, P3: p2})
	}
	return out
}

// Flatten returns a polyline approximating the smoothed stroke. A stroke with
// a single point flattens to that point.
func Flatten(points []float64, tension, tolerance float64) []geom.Point {
	n := len(points) / 2
	if n == 0 {
		return nil
	}
	out := []geom.Point{{X: points[0], Y: points[1]}}
	for _, seg := range Segments(points, tension) {
		out = seg.Flatten(out, tolerance)
	}
	return out
}
