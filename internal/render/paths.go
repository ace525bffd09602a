package render

import (
	"github.com/sketchify/sketchify/backend-go/internal/geom"
	"github.com/sketchify/sketchify/backend-go/internal/scene"
	"github.com/sketchify/sketchify/backend-go/internal/stroke"
)

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand []interface{}

// Magic number for bezier approximation of a circle/ellipse
// k = 4 * (sqrt(2) - 1) / 3 ≈ 0.5522847498
const kappa = 0.5522847498

// ShapePath generates the outline of a shape in logical coordinates.
func ShapePath(sh scene.Shape) []PathCommand {
	switch sh.Type {
	case scene.ShapeRectangle:
		return rectPath(geom.NormalizedRect(sh.Origin, sh.Width, sh.Height))
	case scene.ShapeCircle:
		r := sh.Radius()
		return ellipsePath(sh.Origin, r, r)
	case scene.ShapeTriangle:
		v := sh.TriangleVertices()
		return polygonPath(v[:])
	case scene.ShapeLine:
		end := sh.LineEnd()
		return []PathCommand{
			{"M", sh.Origin.X, sh.Origin.Y},
			{"L", end.X, end.Y},
		}
	}
	return nil
}

// StrokePath generates the smoothed path of a freehand stroke. A single-point
// stroke becomes a zero-length line so round caps still draw a dot.
func StrokePath(points []float64) []PathCommand {
	n := len(points) / 2
	if n == 0 {
		return nil
	}
	path := make([]PathCommand, 0, n)
	path = append(path, PathCommand{"M", points[0], points[1]})
	if n == 1 {
		return append(path, PathCommand{"L", points[0], points[1]})
	}
	for _, c := range stroke.Segments(points, stroke.DefaultTension) {
		path = append(path, PathCommand{"C", c.P1.X, c.P1.Y, c.P2.X, c.P2.Y, c.P3.X, c.P3.Y})
	}
	return path
}

func rectPath(r geom.Rect) []PathCommand {
	return []PathCommand{
		{"M", r.X, r.Y},
		{"L", r.X + r.Width, r.Y},
		{"L", r.X + r.Width, r.Y + r.Height},
		{"L", r.X, r.Y + r.Height},
		{"Z"},
	}
}

// ellipsePath approximates an ellipse centred on c with four cubic curves.
func ellipsePath(c geom.Point, rx, ry float64) []PathCommand {
	kx, ky := rx*kappa, ry*kappa
	return []PathCommand{
		{"M", c.X + rx, c.Y},
		{"C", c.X + rx, c.Y + ky, c.X + kx, c.Y + ry, c.X, c.Y + ry},
		{"C", c.X - kx, c.Y + ry, c.X - rx, c.Y + ky, c.X - rx, c.Y},
		{"C", c.X - rx, c.Y - ky, c.X - kx, c.Y - ry, c.X, c.Y - ry},
		{"C", c.X + kx, c.Y - ry, c.X + rx, c.Y - ky, c.X + rx, c.Y},
		{"Z"},
	}
}

func polygonPath(pts []geom.Point) []PathCommand {
	if len(pts) == 0 {
		return nil
	}
	path := make([]PathCommand, 0, len(pts)+1)
	path = append(path, PathCommand{"M", pts[0].X, pts[0].Y})
	for _, p := range pts[1:] {
		path = append(path, PathCommand{"L", p.X, p.Y})
	}
	return append(path, PathCommand{"Z"})
}

// Subpath is one flattened run of a path. Closed subpaths end with "Z".
type Subpath struct {
	Points []geom.Point
	Closed bool
}

// FlattenPath converts path commands into polylines, applying m to every
// point. Curves are subdivided so that no chord exceeds tolerance in the
// transformed space.
func FlattenPath(path []PathCommand, m geom.Matrix2D, tolerance float64) []Subpath {
	var (
		out []Subpath
		cur *Subpath
		pen geom.Point
	)
	start := func(p geom.Point) {
		out = append(out, Subpath{Points: []geom.Point{p}})
		cur = &out[len(out)-1]
	}

	for _, cmd := range path {
		if len(cmd) == 0 {
			continue
		}
		op, ok := cmd[0].(string)
		if !ok {
			continue
		}

		switch op {
		case "M":
			if len(cmd) >= 3 {
				pen = m.Apply(geom.Pt(toFloat64(cmd[1]), toFloat64(cmd[2])))
				start(pen)
			}

		case "L":
			if len(cmd) >= 3 {
				if cur == nil {
					start(pen)
				}
				pen = m.Apply(geom.Pt(toFloat64(cmd[1]), toFloat64(cmd[2])))
				cur.Points = append(cur.Points, pen)
			}

		case "C":
			if len(cmd) >= 7 {
				c := geom.Cubic{
					P0: pen,
					P1: m.Apply(geom.Pt(toFloat64(cmd[1]), toFloat64(cmd[2]))),
					P2: m.Apply(geom.Pt(toFloat64(cmd[3]), toFloat64(cmd[4]))),
					P3: m.Apply(geom.Pt(toFloat64(cmd[5]), toFloat64(cmd[6]))),
				}
				if cur == nil {
					start(pen)
				}
				cur.Points = c.Flatten(cur.Points, tolerance)
				pen = c.P3
			}

		case "Z":
			if cur != nil {
				cur.Closed = true
				pen = cur.Points[0]
				cur = nil
			}
		}
	}
	return out
}

// PathBounds computes the axis-aligned bounding box of a path after applying
// m. Curve control points are included, so the box may be slightly loose.
func PathBounds(path []PathCommand, m geom.Matrix2D) geom.Rect {
	var pts []geom.Point
	for _, cmd := range path {
		if len(cmd) == 0 {
			continue
		}
		if op, _ := cmd[0].(string); op == "Z" {
			continue
		}
		for i := 1; i+1 < len(cmd); i += 2 {
			pts = append(pts, m.Apply(geom.Pt(toFloat64(cmd[i]), toFloat64(cmd[i+1]))))
		}
	}
	return geom.BoundsOf(pts)
}

// toFloat64 converts an interface{} to float64.
func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
